// Package optional provides an explicit Found/Missing result for lookups whose
// target is expected to be absent sometimes. Missing is not an error; lists
// drop Missing values only where they are assembled, via Collect.
package optional

import (
	"bytes"
	"encoding/json"
)

// Option 持有一个可能缺失的值，零值即 Missing。
type Option[T any] struct {
	value T
	ok    bool
}

// Found 包装一个存在的值。
func Found[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// Missing 返回缺失标记。
func Missing[T any]() Option[T] {
	return Option[T]{}
}

// FromPtr 将 nil 指针视为 Missing。
func FromPtr[T any](v *T) Option[T] {
	if v == nil {
		return Missing[T]()
	}
	return Found(*v)
}

// Get 返回值与是否存在。
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsFound 报告值是否存在。
func (o Option[T]) IsFound() bool {
	return o.ok
}

// OrZero 返回值，缺失时返回 T 的零值。
func (o Option[T]) OrZero() T {
	return o.value
}

// Ptr 返回值的指针，缺失时返回 nil。
func (o Option[T]) Ptr() *T {
	if !o.ok {
		return nil
	}
	v := o.value
	return &v
}

// MarshalJSON 将 Missing 编码为 null。
func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON 将 null 解码为 Missing。
func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Missing[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Found(v)
	return nil
}

// Collect 丢弃 Missing，保留 Found 值的原始顺序。
func Collect[T any](opts []Option[T]) []T {
	result := make([]T, 0, len(opts))
	for _, o := range opts {
		if v, ok := o.Get(); ok {
			result = append(result, v)
		}
	}
	return result
}
