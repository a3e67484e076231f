package thumbformat

import (
	"errors"
	"image"
	"io"
)

// ErrUnknownFormat 表示请求的缩略图格式未注册。
var ErrUnknownFormat = errors.New("thumb format not registered")

// Options 控制单次编码的质量参数，零值表示使用格式默认值。
type Options struct {
	Quality int
	Speed   int
}

// EncodeFunc 将像素编码写入 w。
type EncodeFunc func(w io.Writer, img image.Image, opts Options) error

// Metadata 记录一个输出格式的静态信息。
type Metadata struct {
	// Key 同时作为文件扩展名使用，例如 {w}x{h}.jpg。
	Key         string
	MIMEType    string
	Description string
	// Raster 为 true 的格式可作为 <img> 的兼容回退。
	Raster         bool
	DefaultQuality int
	DefaultSpeed   int
	Encode         EncodeFunc
}

// WithDefaults 用格式默认值补齐 opts 中的零值字段。
func (m Metadata) WithDefaults(opts Options) Options {
	if opts.Quality <= 0 {
		opts.Quality = m.DefaultQuality
	}
	if opts.Speed <= 0 {
		opts.Speed = m.DefaultSpeed
	}
	return opts
}
