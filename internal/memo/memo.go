// Package memo provides a write-once, in-process memoizer for expensive
// loaders. Concurrent callers asking for the same key share one in-flight
// computation; successful results are kept for the life of the Group (or until
// Reset), errors are not kept so the next caller retries.
package memo

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Group 按 key 记忆 fn 的成功结果。零值可直接使用。
type Group[K comparable, V any] struct {
	mu         sync.Mutex
	values     map[K]V
	generation uint64
	flight     singleflight.Group

	// flightIDs 为每个 key 分配唯一编号作为 singleflight 的 key，
	// 不依赖 key 的字符串形式，避免不同结构体 key 格式化后相同。
	flightIDs map[K]uint64
	nextID    uint64
}

// Do 返回 key 的记忆值；不存在时调用 fn，同一时刻同一 key 只会有一次 fn 在执行。
// fn 收到的 context 不会随单个等待者取消。
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func(context.Context) (V, error)) (V, error) {
	if v, ok := g.Peek(key); ok {
		return v, nil
	}

	gen, flightKey := g.flightKey(key)
	detached := context.WithoutCancel(ctx)
	ch := g.flight.DoChan(flightKey, func() (interface{}, error) {
		if v, ok := g.Peek(key); ok {
			return v, nil
		}
		v, err := fn(detached)
		if err != nil {
			return v, err
		}
		g.store(gen, key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Peek 返回已记忆的值，不触发计算。
func (g *Group[K, V]) Peek(key K) (V, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.values[key]
	return v, ok
}

// Forget 丢弃单个 key 的记忆值。
func (g *Group[K, V]) Forget(key K) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.values, key)
}

// Reset 丢弃全部记忆值；Reset 之前发起、之后完成的计算结果不会被保存。
func (g *Group[K, V]) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values = nil
	g.flightIDs = nil
	g.generation++
}

// Len 返回当前记忆的 key 数量。
func (g *Group[K, V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.values)
}

// flightKey 返回当前代数与 key 对应的 singleflight key。
func (g *Group[K, V]) flightKey(key K) (uint64, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.flightIDs[key]
	if !ok {
		if g.flightIDs == nil {
			g.flightIDs = make(map[K]uint64)
		}
		g.nextID++
		id = g.nextID
		g.flightIDs[key] = id
	}
	return g.generation, strconv.FormatUint(id, 10)
}

func (g *Group[K, V]) store(gen uint64, key K, v V) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return
	}
	if g.values == nil {
		g.values = make(map[K]V)
	}
	g.values[key] = v
}
