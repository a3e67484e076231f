package content

import (
	"context"
	"path/filepath"

	"github.com/atelier-press/atelier/internal/optional"
)

// Categories 枚举 categories 目录，Slug 取自文件名。
func (r *Resolver) Categories(ctx context.Context) ([]Category, error) {
	return r.categories.Do(ctx, allKey, func(ctx context.Context) ([]Category, error) {
		dir := r.dir(CategoriesDir)
		ids, err := listIDs(dir, jsonExt)
		if err != nil {
			return nil, err
		}
		categories := make([]Category, 0, len(ids))
		for _, id := range ids {
			var raw rawCategory
			if err := readJSONRecord(filepath.Join(dir, id+jsonExt), &raw); err != nil {
				return nil, err
			}
			title := raw.Title
			if title == "" {
				title = titleFromSlug(id)
			}
			categories = append(categories, Category{Slug: id, Title: title})
		}
		return categories, nil
	})
}

// Items 读取 items 目录下全部条目，并按目录顺序循环计算 Previous/Next。
func (r *Resolver) Items(ctx context.Context) ([]Item, error) {
	return r.itemList.Do(ctx, allKey, func(ctx context.Context) ([]Item, error) {
		dir := r.dir(ItemsDir)
		ids, err := listIDs(dir, markdownExt)
		if err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(ids))
		for _, id := range ids {
			item, err := r.loadItem(ctx, filepath.Join(dir, id+markdownExt), id)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		for i, link := range Ring(items) {
			items[i].Previous = LinkRef{Slug: link.Previous.Slug, Title: link.Previous.Title}
			items[i].Next = LinkRef{Slug: link.Next.Slug, Title: link.Next.Title}
		}
		return items, nil
	})
}

// Item 在 Items 的结果中按 slug 查找，保证 Previous/Next 与集合一致。
func (r *Resolver) Item(ctx context.Context, slug string) (optional.Option[Item], error) {
	items, err := r.Items(ctx)
	if err != nil {
		return optional.Missing[Item](), err
	}
	if i := IndexOf(items, func(it Item) bool { return it.Slug == slug }); i >= 0 {
		return optional.Found(items[i]), nil
	}
	return missingRecord[Item](r.logger, ItemsDir, slug), nil
}

func (r *Resolver) loadItem(ctx context.Context, path, slug string) (Item, error) {
	var raw rawItem
	body, err := readMarkdownRecord(path, &raw)
	if err != nil {
		return Item{}, err
	}
	gallery, err := r.resolveImages(ctx, raw.Images)
	if err != nil {
		return Item{}, err
	}
	title := raw.Title
	if title == "" {
		title = titleFromSlug(slug)
	}
	return Item{
		Slug:        slug,
		Title:       title,
		Image:       raw.Image,
		Description: raw.Description,
		Category:    raw.Category,
		Images:      gallery,
		Content:     body,
	}, nil
}
