package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "500ms"、"2s" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// Widths 是缩略图宽度列表，兼容 TOML 数组与 "200,400" 形式的字符串（便于环境变量覆盖）。
type Widths []int

// Max 返回最大宽度，空列表返回 0。
func (w Widths) Max() int {
	largest := 0
	for _, width := range w {
		if width > largest {
			largest = width
		}
	}
	return largest
}

// 缓存判别模式。
const (
	// CacheModeBuildID 以每次构建生成的 build id 作为判别值，dev 模式下永远不命中。
	CacheModeBuildID = "build-id"
	// CacheModeContentHash 以参与集合的源文件内容哈希作为判别值。
	CacheModeContentHash = "content-hash"
)

// 日志输出格式。
const (
	LogFormatAuto = "auto"
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// GlobalConfig 描述全局运行时行为与目录布局。
type GlobalConfig struct {
	LogLevel      string   `mapstructure:"LogLevel"`
	LogFormat     string   `mapstructure:"LogFormat"`
	LogFilePath   string   `mapstructure:"LogFilePath"`
	LogMaxSize    int      `mapstructure:"LogMaxSize"`
	LogMaxBackups int      `mapstructure:"LogMaxBackups"`
	LogCompress   bool     `mapstructure:"LogCompress"`
	ListenPort    int      `mapstructure:"ListenPort"`
	WatchDebounce Duration `mapstructure:"WatchDebounce"`

	// ContentRoot 存放 tags/works/items/categories 与 index.json，由编辑维护，只读。
	ContentRoot string `mapstructure:"ContentRoot"`
	// PublicRoot 是作品图片引用路径的解析根目录。
	PublicRoot string `mapstructure:"PublicRoot"`
	// CacheRoot 为跨构建持久化的缓存层，永不自动清理。
	CacheRoot string `mapstructure:"CacheRoot"`
	// StaticRoot 为每次构建可被清空的静态输出层。
	StaticRoot string `mapstructure:"StaticRoot"`
	// StaticURLPrefix 是静态输出层对外暴露的 URL 前缀。
	StaticURLPrefix string `mapstructure:"StaticURLPrefix"`

	CacheMode  string `mapstructure:"CacheMode"`
	BuildIDEnv string `mapstructure:"BuildIDEnv"`
}

// ImageConfig 控制缩略图派生参数。
type ImageConfig struct {
	// Formats 中第一个 Raster 格式作为 <img> 回退，其余作为额外 <source>。
	Formats     []string `mapstructure:"Formats"`
	Widths      Widths   `mapstructure:"Widths"`
	JPEGQuality int      `mapstructure:"JPEGQuality"`
	AVIFQuality int      `mapstructure:"AVIFQuality"`
	AVIFSpeed   int      `mapstructure:"AVIFSpeed"`
}

// SiteConfig 是站点级展示信息，原样透传给渲染层。
type SiteConfig struct {
	Title   string `mapstructure:"Title"`
	BaseURL string `mapstructure:"BaseURL"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Images ImageConfig  `mapstructure:"Images"`
	Site   SiteConfig   `mapstructure:"Site"`
}

// QualityFor 返回指定格式的编码质量，未配置的格式返回 0（由格式默认值兜底）。
func (c ImageConfig) QualityFor(format string) int {
	switch format {
	case "jpg":
		return c.JPEGQuality
	case "avif":
		return c.AVIFQuality
	default:
		return 0
	}
}

// SpeedFor 返回指定格式的编码速度参数。
func (c ImageConfig) SpeedFor(format string) int {
	if format == "avif" {
		return c.AVIFSpeed
	}
	return 0
}
