package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/atelier-press/atelier/internal/buildcache"
	"github.com/atelier-press/atelier/internal/cache"
	"github.com/atelier-press/atelier/internal/config"
	"github.com/atelier-press/atelier/internal/content"
	"github.com/atelier-press/atelier/internal/images"
	"github.com/atelier-press/atelier/internal/memo"
	"github.com/atelier-press/atelier/internal/thumbformat"
)

// 集合在构建缓存中的 key。
const (
	KeyTags       = "tags"
	KeyWorks      = "works"
	KeyIndex      = "index"
	KeyItems      = "items"
	KeyCategories = "categories"
)

// Stats 汇总图片引擎与构建缓存的计数。
type Stats struct {
	BuildID   string           `json:"build_id"`
	CacheMode string           `json:"cache_mode"`
	Images    images.Stats     `json:"images"`
	Cache     buildcache.Stats `json:"cache"`
}

// Pipeline 是面向页面渲染层的只读入口，可被多个 goroutine 并发使用。
type Pipeline struct {
	cfg      *config.Config
	logger   *logrus.Logger
	tiers    cache.Tiers
	engine   *images.Engine
	resolver *content.Resolver
	cache    *buildcache.Cache

	discriminators memo.Group[string, string]
}

// New 根据配置构造存储层、图片引擎、内容解析器与构建缓存。
// 构建 id 从 cfg.Global.BuildIDEnv 指定的环境变量读取。
func New(cfg *config.Config, logger *logrus.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	durable, err := cache.NewStore(cfg.Global.CacheRoot)
	if err != nil {
		return nil, fmt.Errorf("init cache store: %w", err)
	}
	static, err := cache.NewStore(cfg.Global.StaticRoot)
	if err != nil {
		return nil, fmt.Errorf("init static store: %w", err)
	}
	tiers, err := cache.NewTiers(durable, static)
	if err != nil {
		return nil, err
	}

	engine, err := images.NewEngine(EngineOptions(cfg), tiers, logger)
	if err != nil {
		return nil, fmt.Errorf("init image engine: %w", err)
	}
	resolver, err := content.NewResolver(cfg.Global.ContentRoot, engine, logger)
	if err != nil {
		return nil, fmt.Errorf("init content resolver: %w", err)
	}
	buildID := ""
	if cfg.Global.CacheMode == config.CacheModeBuildID {
		buildID = buildcache.BuildIDFromEnv(cfg.Global.BuildIDEnv)
	}
	collections, err := buildcache.New(durable, buildID, logger)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"action":     "pipeline_init",
		"cache_mode": cfg.Global.CacheMode,
		"build_id":   buildID,
		"formats":    cfg.Images.Formats,
	}).Debug("流水线初始化完成")

	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		tiers:    tiers,
		engine:   engine,
		resolver: resolver,
		cache:    collections,
	}, nil
}

// EngineOptions 将配置转换为图片引擎参数。
func EngineOptions(cfg *config.Config) images.Options {
	encoding := make(map[string]thumbformat.Options, len(cfg.Images.Formats))
	for _, format := range cfg.Images.Formats {
		encoding[format] = thumbformat.Options{
			Quality: cfg.Images.QualityFor(format),
			Speed:   cfg.Images.SpeedFor(format),
		}
	}
	return images.Options{
		PublicRoot: cfg.Global.PublicRoot,
		URLPrefix:  cfg.Global.StaticURLPrefix,
		Formats:    append([]string(nil), cfg.Images.Formats...),
		Widths:     append([]int(nil), cfg.Images.Widths...),
		Encoding:   encoding,
	}
}

// Engine 返回底层图片引擎。
func (p *Pipeline) Engine() *images.Engine {
	return p.engine
}

// StaticStore 返回静态输出层，预览服务器直接从这里读取文件。
func (p *Pipeline) StaticStore() cache.Store {
	return p.tiers.Static
}

// DurableStore 返回跨构建持久化的缓存层。
func (p *Pipeline) DurableStore() cache.Store {
	return p.tiers.Durable
}

// Resolver 返回底层内容解析器（不经过构建缓存）。
func (p *Pipeline) Resolver() *content.Resolver {
	return p.resolver
}

// Config 返回构造时使用的配置。
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Stats 返回计数快照。
func (p *Pipeline) Stats() Stats {
	return Stats{
		BuildID:   p.cache.BuildID(),
		CacheMode: p.cfg.Global.CacheMode,
		Images:    p.engine.Stats(),
		Cache:     p.cache.Stats(),
	}
}

// Reset 丢弃全部进程内记忆结果，用于内容目录变更后重新解析。磁盘缓存保持不变。
func (p *Pipeline) Reset() {
	p.discriminators.Reset()
	p.resolver.Reset()
	p.engine.Reset()
	p.cache.Reset()
	p.logger.WithField("action", "pipeline_reset").Info("已清空进程内缓存")
}

// discriminator 按缓存模式返回 key 的判别值：build-id 模式返回构建 id，
// content-hash 模式返回参与该集合的源文件指纹。
func (p *Pipeline) discriminator(ctx context.Context, key string) (string, error) {
	if p.cfg.Global.CacheMode != config.CacheModeContentHash {
		return p.cache.BuildID(), nil
	}
	return p.discriminators.Do(ctx, key, func(context.Context) (string, error) {
		return buildcache.Fingerprint(p.sources(key)...)
	})
}

// sources 列出影响集合内容的文件与目录。图片元数据随图片字节变化，因此含图片的集合
// 需要把 PublicRoot 计入指纹。
func (p *Pipeline) sources(key string) []string {
	root := p.cfg.Global.ContentRoot
	tags := filepath.Join(root, content.TagsDir)
	works := filepath.Join(root, content.WorksDir)
	public := p.cfg.Global.PublicRoot

	switch key {
	case KeyTags:
		return []string{tags}
	case KeyWorks:
		return []string{works, tags, public}
	case KeyIndex:
		return []string{filepath.Join(root, content.IndexFile), works, tags, public}
	case KeyItems:
		return []string{filepath.Join(root, content.ItemsDir), public}
	case KeyCategories:
		return []string{filepath.Join(root, content.CategoriesDir)}
	default:
		return []string{root, public}
	}
}
