package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/atelier-press/atelier/internal/images"
	"github.com/atelier-press/atelier/internal/memo"
	"github.com/atelier-press/atelier/internal/optional"
)

// ImageSource 解析记录中引用的图片路径，images.Engine 即为实现。
type ImageSource interface {
	GetImage(ctx context.Context, src string) (optional.Option[images.Image], error)
}

// 目录与文件布局。
const (
	TagsDir       = "tags"
	WorksDir      = "works"
	IndexFile     = "index.json"
	CategoriesDir = "categories"
	ItemsDir      = "items"
)

const allKey = "*"

// Resolver 从内容目录读取记录并解析引用。所有读取按 key 记忆，
// 同一进程内重复调用返回同一结果；Reset 用于内容变更后重新读取。
type Resolver struct {
	root   string
	images ImageSource
	logger *logrus.Logger

	tags       memo.Group[string, optional.Option[Tag]]
	tagList    memo.Group[string, []Tag]
	works      memo.Group[string, optional.Option[Work]]
	workList   memo.Group[string, []Work]
	index      memo.Group[string, Index]
	categories memo.Group[string, []Category]
	itemList   memo.Group[string, []Item]
}

// NewResolver 以 root 为内容根目录构造解析器。
func NewResolver(root string, images ImageSource, logger *logrus.Logger) (*Resolver, error) {
	if root == "" {
		return nil, errors.New("content root is required")
	}
	if images == nil {
		return nil, errors.New("image source is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve content root: %w", err)
	}
	return &Resolver{root: abs, images: images, logger: logger}, nil
}

// Root 返回内容根目录的绝对路径。
func (r *Resolver) Root() string {
	return r.root
}

// Reset 丢弃全部记忆结果。
func (r *Resolver) Reset() {
	r.tags.Reset()
	r.tagList.Reset()
	r.works.Reset()
	r.workList.Reset()
	r.index.Reset()
	r.categories.Reset()
	r.itemList.Reset()
}

// Tag 返回 id 对应的标签，文件不存在时返回 Missing。
func (r *Resolver) Tag(ctx context.Context, id string) (optional.Option[Tag], error) {
	return r.tags.Do(ctx, id, func(ctx context.Context) (optional.Option[Tag], error) {
		path, ok := recordPath(r.dir(TagsDir), id, jsonExt)
		if !ok {
			return missingRecord[Tag](r.logger, TagsDir, id), nil
		}
		var raw rawTag
		if err := readJSONRecord(path, &raw); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return missingRecord[Tag](r.logger, TagsDir, id), nil
			}
			return optional.Missing[Tag](), err
		}
		tag := Tag{ID: raw.Slug, Name: raw.Title}
		if tag.ID == "" {
			tag.ID = id
		}
		if tag.Name == "" {
			tag.Name = titleFromSlug(tag.ID)
		}
		return optional.Found(tag), nil
	})
}

// Tags 枚举 tags 目录并逐个解析，丢弃解析为 Missing 的 id。
func (r *Resolver) Tags(ctx context.Context) ([]Tag, error) {
	return r.tagList.Do(ctx, allKey, func(ctx context.Context) ([]Tag, error) {
		ids, err := listIDs(r.dir(TagsDir), jsonExt)
		if err != nil {
			return nil, err
		}
		return r.resolveTags(ctx, ids)
	})
}

// Work 返回 id 对应的作品，文件不存在时返回 Missing。
func (r *Resolver) Work(ctx context.Context, id string) (optional.Option[Work], error) {
	return r.works.Do(ctx, id, func(ctx context.Context) (optional.Option[Work], error) {
		path, ok := recordPath(r.dir(WorksDir), id, markdownExt)
		if !ok {
			return missingRecord[Work](r.logger, WorksDir, id), nil
		}
		var raw rawWork
		body, err := readMarkdownRecord(path, &raw)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return missingRecord[Work](r.logger, WorksDir, id), nil
			}
			return optional.Missing[Work](), err
		}

		image, err := r.image(ctx, raw.Image)
		if err != nil {
			return optional.Missing[Work](), err
		}
		tagIDs := make([]string, 0, len(raw.Tags))
		for _, ref := range raw.Tags {
			tagIDs = append(tagIDs, ref.Tag)
		}
		tags, err := r.resolveTags(ctx, tagIDs)
		if err != nil {
			return optional.Missing[Work](), err
		}
		gallery, err := r.resolveImages(ctx, raw.Images)
		if err != nil {
			return optional.Missing[Work](), err
		}

		title := raw.Title
		if title == "" {
			title = titleFromSlug(id)
		}
		return optional.Found(Work{
			ID:          id,
			Title:       title,
			Description: raw.Description,
			Image:       image,
			Tags:        tags,
			Text:        body,
			Images:      gallery,
			Excerpt:     excerpt(body, excerptLimit),
		}), nil
	})
}

// Works 枚举 works 目录并逐个解析，丢弃解析为 Missing 的 id。
func (r *Resolver) Works(ctx context.Context) ([]Work, error) {
	return r.workList.Do(ctx, allKey, func(ctx context.Context) ([]Work, error) {
		ids, err := listIDs(r.dir(WorksDir), markdownExt)
		if err != nil {
			return nil, err
		}
		return r.resolveWorks(ctx, ids)
	})
}

// Index 解析根记录；index.json 不存在属于内容目录错误，直接返回错误。
func (r *Resolver) Index(ctx context.Context) (Index, error) {
	return r.index.Do(ctx, allKey, func(ctx context.Context) (Index, error) {
		var raw rawIndex
		if err := readJSONRecord(filepath.Join(r.root, IndexFile), &raw); err != nil {
			return Index{}, fmt.Errorf("content: read index: %w", err)
		}
		image, err := r.image(ctx, raw.Image)
		if err != nil {
			return Index{}, err
		}
		workIDs := make([]string, 0, len(raw.Works))
		for _, ref := range raw.Works {
			workIDs = append(workIDs, ref.Work)
		}
		works, err := r.resolveWorks(ctx, workIDs)
		if err != nil {
			return Index{}, err
		}
		tagIDs := make([]string, 0, len(raw.Tags))
		for _, ref := range raw.Tags {
			tagIDs = append(tagIDs, ref.Tag)
		}
		tags, err := r.resolveTags(ctx, tagIDs)
		if err != nil {
			return Index{}, err
		}
		return Index{
			Title:       raw.Title,
			Description: raw.Description,
			Image:       image,
			Works:       works,
			Tags:        tags,
		}, nil
	})
}

func (r *Resolver) resolveTags(ctx context.Context, ids []string) ([]Tag, error) {
	options := make([]optional.Option[Tag], 0, len(ids))
	for _, id := range ids {
		tag, err := r.Tag(ctx, id)
		if err != nil {
			return nil, err
		}
		options = append(options, tag)
	}
	return optional.Collect(options), nil
}

func (r *Resolver) resolveWorks(ctx context.Context, ids []string) ([]Work, error) {
	options := make([]optional.Option[Work], 0, len(ids))
	for _, id := range ids {
		work, err := r.Work(ctx, id)
		if err != nil {
			return nil, err
		}
		options = append(options, work)
	}
	return optional.Collect(options), nil
}

func (r *Resolver) resolveImages(ctx context.Context, srcs []string) ([]images.Image, error) {
	options := make([]optional.Option[images.Image], 0, len(srcs))
	for _, src := range srcs {
		img, err := r.image(ctx, src)
		if err != nil {
			return nil, err
		}
		options = append(options, img)
	}
	return optional.Collect(options), nil
}

// image 空路径表示记录未引用图片，不记录告警。
func (r *Resolver) image(ctx context.Context, src string) (optional.Option[images.Image], error) {
	if src == "" {
		return optional.Missing[images.Image](), nil
	}
	return r.images.GetImage(ctx, src)
}

func (r *Resolver) dir(name string) string {
	return filepath.Join(r.root, name)
}

func missingRecord[T any](logger *logrus.Logger, kind, id string) optional.Option[T] {
	logger.WithFields(logrus.Fields{"action": "record_missing", "kind": kind, "id": id}).Warn("引用的记录不存在")
	return optional.Missing[T]()
}
