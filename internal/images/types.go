package images

import (
	"errors"

	"github.com/atelier-press/atelier/internal/identity"
)

var (
	// ErrInvalidSize 表示请求尺寸或源图尺寸不合法。
	ErrInvalidSize = errors.New("invalid image size")
	// ErrStaleImage 表示源文件内容已与 Image.ID 不一致，继续派生会污染缓存。
	ErrStaleImage = errors.New("source image changed since metadata was computed")
	// ErrCorruptMetadata 表示 data.json 无法解析或缺少必要字段。
	ErrCorruptMetadata = errors.New("corrupt image metadata")
)

// Image 是源图片的身份与元数据，写入 cache/images/{id}/data.json 后不再变化。
type Image struct {
	ID            identity.ImageID `json:"id"`
	URL           string           `json:"url"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	DominantColor string           `json:"dominantColor,omitempty"`
}

// Size 是一次缩略图请求的目标尺寸，Height 为 0 时按源图比例推导。
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height,omitempty"`
}

// Thumb 描述一个具体渲染结果。
type Thumb struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// Source 对应 <picture> 中的一个 <source>。
type Source struct {
	Type   string `json:"type"`
	SrcSet string `json:"srcSet"`
}

// Picture 聚合多宽度、多格式的缩略图，供响应式渲染。
type Picture struct {
	Sources []Source `json:"sources"`
	Img     Thumb    `json:"img"`
}

// Stats 统计引擎自创建以来完成的各类工作量。
type Stats struct {
	MetadataHits int64 `json:"metadata_hits"`
	Decodes      int64 `json:"decodes"`
	Encodes      int64 `json:"encodes"`
	CacheCopies  int64 `json:"cache_copies"`
	StaticHits   int64 `json:"static_hits"`
	Missing      int64 `json:"missing"`
}
