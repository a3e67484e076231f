package pipeline

import (
	"context"

	"github.com/atelier-press/atelier/internal/buildcache"
	"github.com/atelier-press/atelier/internal/content"
	"github.com/atelier-press/atelier/internal/optional"
)

// Neighbors 是作品在首页顺序中的前后作品。
type Neighbors struct {
	Previous content.Work `json:"previous"`
	Next     content.Work `json:"next"`
}

func fetch[T any](ctx context.Context, p *Pipeline, key string, load func(context.Context) (T, error)) (T, error) {
	discriminator, err := p.discriminator(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	return buildcache.FetchKeyed(ctx, p.cache, key, discriminator, load)
}

// TagsFromCache 返回全部标签。
func (p *Pipeline) TagsFromCache(ctx context.Context) ([]content.Tag, error) {
	return fetch(ctx, p, KeyTags, p.resolver.Tags)
}

// TagFromCache 在缓存的标签集合中查找 id。
func (p *Pipeline) TagFromCache(ctx context.Context, id string) (optional.Option[content.Tag], error) {
	tags, err := p.TagsFromCache(ctx)
	if err != nil {
		return optional.Missing[content.Tag](), err
	}
	return find(tags, func(t content.Tag) bool { return t.ID == id }), nil
}

// WorksFromCache 返回全部作品。
func (p *Pipeline) WorksFromCache(ctx context.Context) ([]content.Work, error) {
	return fetch(ctx, p, KeyWorks, p.resolver.Works)
}

// WorkFromCache 在缓存的作品集合中查找 id。
func (p *Pipeline) WorkFromCache(ctx context.Context, id string) (optional.Option[content.Work], error) {
	works, err := p.WorksFromCache(ctx)
	if err != nil {
		return optional.Missing[content.Work](), err
	}
	return find(works, func(w content.Work) bool { return w.ID == id }), nil
}

// IndexFromCache 返回首页根记录。
func (p *Pipeline) IndexFromCache(ctx context.Context) (content.Index, error) {
	return fetch(ctx, p, KeyIndex, p.resolver.Index)
}

// ItemsFromCache 返回旧版条目集合。
func (p *Pipeline) ItemsFromCache(ctx context.Context) ([]content.Item, error) {
	return fetch(ctx, p, KeyItems, p.resolver.Items)
}

// CategoriesFromCache 返回旧版分类集合。
func (p *Pipeline) CategoriesFromCache(ctx context.Context) ([]content.Category, error) {
	return fetch(ctx, p, KeyCategories, p.resolver.Categories)
}

// WorkNeighbors 按首页列出的作品顺序循环计算前后作品；作品未在首页列出时返回 Missing。
func (p *Pipeline) WorkNeighbors(ctx context.Context, id string) (optional.Option[Neighbors], error) {
	index, err := p.IndexFromCache(ctx)
	if err != nil {
		return optional.Missing[Neighbors](), err
	}
	i := content.IndexOf(index.Works, func(w content.Work) bool { return w.ID == id })
	prev, next, ok := content.Neighbors(index.Works, i)
	if !ok {
		return optional.Missing[Neighbors](), nil
	}
	return optional.Found(Neighbors{Previous: prev, Next: next}), nil
}

func find[T any](list []T, match func(T) bool) optional.Option[T] {
	if i := content.IndexOf(list, match); i >= 0 {
		return optional.Found(list[i])
	}
	return optional.Missing[T]()
}
