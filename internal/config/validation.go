package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/atelier-press/atelier/internal/thumbformat"
)

var supportedCacheModes = map[string]struct{}{
	CacheModeBuildID:     {},
	CacheModeContentHash: {},
}

var supportedLogFormats = map[string]struct{}{
	LogFormatAuto: {},
	LogFormatJSON: {},
	LogFormatText: {},
}

// Validate 针对语义级别做进一步校验，防止非法配置进入构建流程。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别")
	}
	if _, ok := supportedLogFormats[g.LogFormat]; !ok {
		return newFieldError("Global.LogFormat", "仅支持 auto/json/text")
	}
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	for field, value := range map[string]string{
		"Global.ContentRoot": g.ContentRoot,
		"Global.PublicRoot":  g.PublicRoot,
		"Global.CacheRoot":   g.CacheRoot,
		"Global.StaticRoot":  g.StaticRoot,
	} {
		if strings.TrimSpace(value) == "" {
			return newFieldError(field, "不能为空")
		}
	}
	if g.StaticURLPrefix == "" || g.StaticURLPrefix == "/" || strings.HasPrefix(g.StaticURLPrefix, "/-/") || g.StaticURLPrefix == "/-" {
		return newFieldError("Global.StaticURLPrefix", "必须是非根路径且不能占用 /-/ 诊断前缀")
	}
	if _, ok := supportedCacheModes[g.CacheMode]; !ok {
		return newFieldError("Global.CacheMode", "仅支持 build-id/content-hash")
	}
	if g.CacheMode == CacheModeBuildID && strings.TrimSpace(g.BuildIDEnv) == "" {
		return newFieldError("Global.BuildIDEnv", "build-id 模式下不能为空")
	}

	return c.Images.validate()
}

func (c ImageConfig) validate() error {
	if len(c.Formats) == 0 {
		return newFieldError(imageField("Formats", -1), "至少需要一种输出格式")
	}

	seen := map[string]struct{}{}
	hasRaster := false
	for i, format := range c.Formats {
		meta, ok := thumbformat.Resolve(format)
		if !ok {
			return newFieldError(imageField("Formats", i), fmt.Sprintf("未注册格式 %s，仅支持 %s", format, strings.Join(thumbformat.Keys(), "|")))
		}
		if _, dup := seen[meta.Key]; dup {
			return newFieldError(imageField("Formats", i), "重复")
		}
		seen[meta.Key] = struct{}{}
		if meta.Raster {
			hasRaster = true
		}
	}
	if !hasRaster {
		return newFieldError(imageField("Formats", -1), "至少需要一种可作为 <img> 回退的格式")
	}

	if len(c.Widths) == 0 {
		return newFieldError(imageField("Widths", -1), "至少需要一个宽度")
	}
	for i, width := range c.Widths {
		if width <= 0 {
			return newFieldError(imageField("Widths", i), "必须大于 0")
		}
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return newFieldError(imageField("JPEGQuality", -1), "必须在 1-100")
	}
	if c.AVIFQuality < 1 || c.AVIFQuality > 100 {
		return newFieldError(imageField("AVIFQuality", -1), "必须在 1-100")
	}
	if c.AVIFSpeed < 0 || c.AVIFSpeed > 10 {
		return newFieldError(imageField("AVIFSpeed", -1), "必须在 0-10")
	}
	return nil
}

// RasterFormat 返回 Formats 中第一个可作为 <img> 回退的格式。
func (c ImageConfig) RasterFormat() string {
	for _, format := range c.Formats {
		if meta, ok := thumbformat.Resolve(format); ok && meta.Raster {
			return meta.Key
		}
	}
	return ""
}
