package cache

import (
	"context"
	"errors"
	"io"
)

// ErrStoreUnavailable 表示 Tiers 缺少某一层存储实例。
var ErrStoreUnavailable = errors.New("cache store unavailable")

// Tier 标识一次查找命中的存储层级。
type Tier string

const (
	// TierStatic 表示静态输出层已存在该文件，无需任何工作。
	TierStatic Tier = "static"
	// TierCache 表示持久缓存层存在该文件，只需复制到静态输出层。
	TierCache Tier = "cache"
	// TierMiss 表示两层都不存在，需要重新生成。
	TierMiss Tier = "miss"
)

// Tiers 组合跨构建持久化的缓存层与每次构建可被清空的静态输出层，
// 两层使用相同的 Locator 布局。
type Tiers struct {
	Durable Store
	Static  Store
}

// NewTiers 构造双层存储，任一层为空都会返回 ErrStoreUnavailable。
func NewTiers(durable, static Store) (Tiers, error) {
	if durable == nil || static == nil {
		return Tiers{}, ErrStoreUnavailable
	}
	return Tiers{Durable: durable, Static: static}, nil
}

// Locate 按 static → cache 的顺序查找条目，返回命中的层级。
func (t Tiers) Locate(ctx context.Context, locator Locator) (Tier, error) {
	if _, err := t.Static.Stat(ctx, locator); err == nil {
		return TierStatic, nil
	} else if !errors.Is(err, ErrNotFound) {
		return TierMiss, err
	}

	if _, err := t.Durable.Stat(ctx, locator); err == nil {
		return TierCache, nil
	} else if !errors.Is(err, ErrNotFound) {
		return TierMiss, err
	}
	return TierMiss, nil
}

// Promote 将持久缓存层的条目复制到静态输出层。
func (t Tiers) Promote(ctx context.Context, locator Locator) (*Entry, error) {
	result, err := t.Durable.Get(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer result.Reader.Close()

	return t.Static.Put(ctx, locator, result.Reader, PutOptions{ModTime: result.Entry.ModTime})
}

// Publish 先将 body 写入持久缓存层，再复制到静态输出层，返回静态层的条目。
func (t Tiers) Publish(ctx context.Context, locator Locator, body io.Reader) (*Entry, error) {
	if _, err := t.Durable.Put(ctx, locator, body, PutOptions{}); err != nil {
		return nil, err
	}
	return t.Promote(ctx, locator)
}
