package content

import (
	"errors"

	"github.com/atelier-press/atelier/internal/images"
	"github.com/atelier-press/atelier/internal/optional"
)

// ErrInvalidRecord 表示记录文件存在但无法解析。
var ErrInvalidRecord = errors.New("invalid content record")

// Tag 对应 tags/{id}.json。
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Work 是作品记录解析并解析引用后的结果，返回后视为只读。
type Work struct {
	ID          string                        `json:"id"`
	Title       string                        `json:"title"`
	Description string                        `json:"description"`
	Image       optional.Option[images.Image] `json:"image"`
	Tags        []Tag                         `json:"tags"`
	Text        string                        `json:"text"`
	Images      []images.Image                `json:"images"`
	// Excerpt 是正文的纯文本摘要，供列表与 meta 描述使用。
	Excerpt string `json:"excerpt"`
}

// Index 是整个站点唯一的根记录。
type Index struct {
	Title       string                        `json:"title"`
	Description string                        `json:"description"`
	Image       optional.Option[images.Image] `json:"image"`
	Works       []Work                        `json:"works"`
	Tags        []Tag                         `json:"tags"`
}

// Category 对应 categories/{id}.json，Slug 取自文件名。
type Category struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// LinkRef 是上一篇/下一篇链接所需的最少信息。
type LinkRef struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Item 是旧版条目集合中的一项，Previous/Next 按目录顺序循环计算。
type Item struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Image       string         `json:"image"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Images      []images.Image `json:"images"`
	Content     string         `json:"content"`
	Previous    LinkRef        `json:"previous"`
	Next        LinkRef        `json:"next"`
}
