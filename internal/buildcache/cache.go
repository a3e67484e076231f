package buildcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/atelier-press/atelier/internal/cache"
	"github.com/atelier-press/atelier/internal/logging"
	"github.com/atelier-press/atelier/internal/memo"
)

const fileExt = ".json"

// Envelope 是磁盘上的缓存格式。
type Envelope[T any] struct {
	BuildID string `json:"buildId"`
	Data    T      `json:"data"`
}

// Stats 统计缓存命中情况。
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Corrupt int64 `json:"corrupt"`
}

// Cache 以 key 为单位缓存整个集合。零值不可用，请使用 New。
type Cache struct {
	store   cache.Store
	buildID string
	logger  *logrus.Logger

	values memo.Group[string, any]

	hits    atomic.Int64
	misses  atomic.Int64
	corrupt atomic.Int64
}

// New 构造缓存；buildID 为空表示交互式会话，所有查找都会重新计算。
func New(store cache.Store, buildID string, logger *logrus.Logger) (*Cache, error) {
	if store == nil {
		return nil, cache.ErrStoreUnavailable
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Cache{store: store, buildID: buildID, logger: logger}, nil
}

// BuildIDFromEnv 读取保存构建 id 的环境变量。
func BuildIDFromEnv(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

// BuildID 返回当前进程的构建 id。
func (c *Cache) BuildID() string {
	return c.buildID
}

// Reset 丢弃进程内记忆的结果，磁盘上的信封保持不变。
func (c *Cache) Reset() {
	c.values.Reset()
}

// Stats 返回计数快照。
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Corrupt: c.corrupt.Load()}
}

// Fetch 以构建 id 作为判别值读取 key 对应的集合。
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	return FetchKeyed(ctx, c, key, c.buildID, fetch)
}

// FetchKeyed 在信封的判别值与 discriminator 相同时直接返回缓存数据，否则调用 fetch
// 并覆盖信封。discriminator 为空时永不命中。
func FetchKeyed[T any](ctx context.Context, c *Cache, key, discriminator string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	locator, err := envelopeLocator(key)
	if err != nil {
		return zero, err
	}

	v, err := c.values.Do(ctx, key, func(ctx context.Context) (any, error) {
		if data, ok := load[T](ctx, c, locator, discriminator); ok {
			c.hits.Add(1)
			c.logger.WithFields(logging.CacheFields("cache_lookup", key, discriminator, true)).Debug("命中构建缓存")
			return data, nil
		}

		c.misses.Add(1)
		c.logger.WithFields(logging.CacheFields("cache_lookup", key, discriminator, false)).Info("重新计算集合")
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := save(ctx, c, locator, discriminator, data); err != nil {
			// 写入失败不影响本次结果，下次构建会再次计算。
			c.logger.WithError(err).WithFields(logging.CacheFields("cache_write_failed", key, discriminator, false)).Warn("写入构建缓存失败")
		}
		return data, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func load[T any](ctx context.Context, c *Cache, locator cache.Locator, discriminator string) (T, bool) {
	var zero T
	if discriminator == "" {
		return zero, false
	}
	result, err := c.store.Get(ctx, locator)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			c.logger.WithError(err).WithField("locator", locator.String()).Warn("cache_get_failed")
		}
		return zero, false
	}
	defer result.Reader.Close()

	raw, err := io.ReadAll(result.Reader)
	if err != nil {
		return zero, false
	}
	var envelope Envelope[T]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.corrupt.Add(1)
		c.logger.WithFields(logrus.Fields{"action": "cache_corrupt", "locator": locator.String()}).Warn("构建缓存损坏，重新计算")
		return zero, false
	}
	if envelope.BuildID != discriminator {
		return zero, false
	}
	return envelope.Data, true
}

func save[T any](ctx context.Context, c *Cache, locator cache.Locator, discriminator string, data T) error {
	payload, err := json.Marshal(Envelope[T]{BuildID: discriminator, Data: data})
	if err != nil {
		return err
	}
	_, err = c.store.Put(ctx, locator, bytes.NewReader(payload), cache.PutOptions{})
	return err
}

func envelopeLocator(key string) (cache.Locator, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return cache.Locator{}, fmt.Errorf("buildcache: invalid key %q", key)
	}
	return cache.Locator{Path: key + fileExt}, nil
}
