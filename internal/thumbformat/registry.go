package thumbformat

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var globalRegistry = newRegistry()

type registry struct {
	mu      sync.RWMutex
	formats map[string]Metadata
}

func newRegistry() *registry {
	return &registry{formats: make(map[string]Metadata)}
}

// Register 将格式元数据加入全局注册表，重复键会返回错误。
func Register(meta Metadata) error {
	return globalRegistry.register(meta)
}

// MustRegister 在注册失败时 panic，适合格式包 init() 中调用。
func MustRegister(meta Metadata) {
	if err := Register(meta); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的格式元数据。
func Resolve(key string) (Metadata, bool) {
	return globalRegistry.resolve(key)
}

// Lookup 与 Resolve 相同，但在未注册时返回 ErrUnknownFormat。
func Lookup(key string) (Metadata, error) {
	meta, ok := Resolve(key)
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %q", ErrUnknownFormat, key)
	}
	return meta, nil
}

// List 返回按键排序的格式列表。
func List() []Metadata {
	return globalRegistry.list()
}

// Keys 返回所有已注册格式的键值，供配置错误提示使用。
func Keys() []string {
	items := List()
	result := make([]string, len(items))
	for i, meta := range items {
		result[i] = meta.Key
	}
	return result
}

func (r *registry) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(meta Metadata) error {
	key := r.normalizeKey(meta.Key)
	if key == "" {
		return fmt.Errorf("format key is required")
	}
	if meta.Encode == nil {
		return fmt.Errorf("format %s: encoder is required", key)
	}
	meta.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formats[key]; exists {
		return fmt.Errorf("format %s already registered", key)
	}
	r.formats[key] = meta
	return nil
}

func (r *registry) resolve(key string) (Metadata, bool) {
	if key == "" {
		return Metadata{}, false
	}
	normalized := r.normalizeKey(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.formats[normalized]
	return meta, ok
}

func (r *registry) list() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.formats) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.formats))
	for key := range r.formats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Metadata, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.formats[key])
	}
	return result
}
