package images

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/atelier-press/atelier/internal/cache"
	"github.com/atelier-press/atelier/internal/identity"
	"github.com/atelier-press/atelier/internal/memo"
	"github.com/atelier-press/atelier/internal/optional"
	"github.com/atelier-press/atelier/internal/thumbformat"
)

// Namespace 是图片产物在两层存储中的目录。
const Namespace = "images"

const metadataFile = "data.json"

// Options 描述引擎的目录与编码参数。
type Options struct {
	// PublicRoot 是 Image.URL 的解析根目录。
	PublicRoot string
	// URLPrefix 是静态输出层的公开路径前缀，例如 /_static。
	URLPrefix string
	// Formats 决定 GetPicture 输出的格式，至少包含一种 Raster 格式。
	Formats []string
	// Widths 是 GetPicture 未指定尺寸时的默认宽度。
	Widths []int
	// Encoding 按格式覆盖编码参数，缺省使用格式默认值。
	Encoding map[string]thumbformat.Options
}

// Engine 负责图片元数据与缩略图派生，可被多个 goroutine 并发使用。
type Engine struct {
	opts   Options
	tiers  cache.Tiers
	logger *logrus.Logger

	images memo.Group[string, optional.Option[Image]]
	thumbs memo.Group[cache.Locator, Thumb]

	metadataHits atomic.Int64
	decodes      atomic.Int64
	encodes      atomic.Int64
	cacheCopies  atomic.Int64
	staticHits   atomic.Int64
	missing      atomic.Int64
}

// NewEngine 校验参数并构造引擎。
func NewEngine(opts Options, tiers cache.Tiers, logger *logrus.Logger) (*Engine, error) {
	if tiers.Durable == nil || tiers.Static == nil {
		return nil, cache.ErrStoreUnavailable
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.PublicRoot == "" {
		return nil, errors.New("public root is required")
	}
	abs, err := filepath.Abs(opts.PublicRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve public root: %w", err)
	}
	opts.PublicRoot = abs
	opts.URLPrefix = "/" + strings.Trim(opts.URLPrefix, "/")

	if len(opts.Formats) == 0 {
		return nil, errors.New("at least one thumb format is required")
	}
	hasRaster := false
	for _, format := range opts.Formats {
		meta, err := thumbformat.Lookup(format)
		if err != nil {
			return nil, err
		}
		hasRaster = hasRaster || meta.Raster
	}
	if !hasRaster {
		return nil, errors.New("a raster thumb format is required for the <img> fallback")
	}

	return &Engine{opts: opts, tiers: tiers, logger: logger}, nil
}

// Stats 返回当前计数快照。
func (e *Engine) Stats() Stats {
	return Stats{
		MetadataHits: e.metadataHits.Load(),
		Decodes:      e.decodes.Load(),
		Encodes:      e.encodes.Load(),
		CacheCopies:  e.cacheCopies.Load(),
		StaticHits:   e.staticHits.Load(),
		Missing:      e.missing.Load(),
	}
}

// Reset 丢弃进程内的记忆结果，磁盘产物保持不变。
func (e *Engine) Reset() {
	e.images.Reset()
	e.thumbs.Reset()
}

// Formats 返回引擎输出的格式列表。
func (e *Engine) Formats() []string {
	return append([]string(nil), e.opts.Formats...)
}

// DefaultSizes 将默认宽度转换为 Size 列表。
func (e *Engine) DefaultSizes() []Size {
	sizes := make([]Size, 0, len(e.opts.Widths))
	for _, width := range e.opts.Widths {
		sizes = append(sizes, Size{Width: width})
	}
	return sizes
}

// resolveSource 将站点相对路径映射到 PublicRoot 下的文件，越界路径视为不存在。
func (e *Engine) resolveSource(src string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(src)), "/")
	if rel == "" {
		return "", false
	}
	full := filepath.Join(e.opts.PublicRoot, filepath.FromSlash(rel))
	if !strings.HasPrefix(full, e.opts.PublicRoot+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func (e *Engine) publicURL(id identity.ImageID, name string) string {
	return path.Join(e.opts.URLPrefix, Namespace, string(id), name)
}

func (e *Engine) encodeOptions(meta thumbformat.Metadata) thumbformat.Options {
	return meta.WithDefaults(e.opts.Encoding[meta.Key])
}

func metadataLocator(id identity.ImageID) cache.Locator {
	return cache.Locator{Namespace: Namespace, Path: path.Join(string(id), metadataFile)}
}

func thumbLocator(id identity.ImageID, name string) cache.Locator {
	return cache.Locator{Namespace: Namespace, Path: path.Join(string(id), name)}
}
