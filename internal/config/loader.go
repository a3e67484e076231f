package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 是覆盖配置项时使用的环境变量前缀，例如 ATELIER_CACHEMODE。
const EnvPrefix = "ATELIER"

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
// path 为空时仅使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		widthsDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyImageDefaults(&cfg.Images)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := ""
	if path != "" {
		base = filepath.Dir(path)
	}
	if err := cfg.Global.resolveRoots(base); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", LogFormatAuto)
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("ListenPort", 4000)
	v.SetDefault("WatchDebounce", "500ms")
	v.SetDefault("ContentRoot", "content")
	v.SetDefault("PublicRoot", "public")
	v.SetDefault("CacheRoot", filepath.Join(".atelier", "cache"))
	v.SetDefault("StaticRoot", filepath.Join(".atelier", "static"))
	v.SetDefault("StaticURLPrefix", "/_static")
	v.SetDefault("CacheMode", CacheModeBuildID)
	v.SetDefault("BuildIDEnv", "ATELIER_BUILD_ID")
	v.SetDefault("Images.Formats", []string{"jpg", "avif"})
	v.SetDefault("Images.Widths", []int{200})
	v.SetDefault("Images.JPEGQuality", 60)
	v.SetDefault("Images.AVIFQuality", 60)
	v.SetDefault("Images.AVIFSpeed", 8)
	v.SetDefault("Site.Title", "")
	v.SetDefault("Site.BaseURL", "")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 4000
	}
	if g.WatchDebounce.DurationValue() <= 0 {
		g.WatchDebounce = Duration(500 * time.Millisecond)
	}
	g.LogFormat = strings.ToLower(strings.TrimSpace(g.LogFormat))
	if g.LogFormat == "" {
		g.LogFormat = LogFormatAuto
	}
	g.CacheMode = strings.ToLower(strings.TrimSpace(g.CacheMode))
	if g.CacheMode == "" {
		g.CacheMode = CacheModeBuildID
	}
	if prefix := strings.TrimSpace(g.StaticURLPrefix); prefix != "" {
		g.StaticURLPrefix = "/" + strings.Trim(prefix, "/")
	}
}

func applyImageDefaults(c *ImageConfig) {
	formats := make([]string, 0, len(c.Formats))
	for _, format := range c.Formats {
		if normalized := strings.ToLower(strings.TrimSpace(format)); normalized != "" {
			formats = append(formats, normalized)
		}
	}
	c.Formats = formats
}

// resolveRoots 将相对目录解析为绝对路径；相对路径以配置文件所在目录为基准。
func (g *GlobalConfig) resolveRoots(base string) error {
	roots := []struct {
		name  string
		value *string
	}{
		{"Global.ContentRoot", &g.ContentRoot},
		{"Global.PublicRoot", &g.PublicRoot},
		{"Global.CacheRoot", &g.CacheRoot},
		{"Global.StaticRoot", &g.StaticRoot},
	}
	for _, root := range roots {
		raw := *root.value
		if !filepath.IsAbs(raw) && base != "" {
			raw = filepath.Join(base, raw)
		}
		abs, err := filepath.Abs(raw)
		if err != nil {
			return fmt.Errorf("无法解析目录 %s: %w", root.name, err)
		}
		*root.value = abs
	}
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

// widthsDecodeHook 允许 Images.Widths 写成 "200,400" 字符串。
func widthsDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Widths(nil))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}
		raw, ok := data.(string)
		if !ok {
			return data, nil
		}

		var widths Widths
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			width, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("无法解析宽度 %q: %w", part, err)
			}
			widths = append(widths, width)
		}
		return widths, nil
	}
}
