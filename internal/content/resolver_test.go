package content

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/atelier-press/atelier/internal/cache"
	"github.com/atelier-press/atelier/internal/images"
	_ "github.com/atelier-press/atelier/internal/thumbformat/png"
)

func TestIndexEndToEnd(t *testing.T) {
	root := t.TempDir()
	contentRoot := filepath.Join(root, "content")
	publicRoot := filepath.Join(root, "public")

	writeFile(t, contentRoot, "tags/ink.json", `{"slug": "ink", "title": "Ink"}`)
	writeFile(t, contentRoot, "works/first.md", "---\ntitle: First\ntags:\n  - tag: ink\nimage: sample.png\n---\nBody text.\n")
	writeFile(t, contentRoot, "index.json", `{
		// 首页
		"title": "Atelier",
		"description": "Works on paper",
		"image": "sample.png",
		"works": [{"work": "first"}],
		"tags": [{"tag": "ink"}],
	}`)
	writeTestPNG(t, filepath.Join(publicRoot, "sample.png"), 64, 48)

	durable, err := cache.NewStore(filepath.Join(root, "cache"))
	require.NoError(t, err)
	static, err := cache.NewStore(filepath.Join(root, "static"))
	require.NoError(t, err)
	tiers, err := cache.NewTiers(durable, static)
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	engine, err := images.NewEngine(images.Options{PublicRoot: publicRoot, Formats: []string{"png"}, Widths: []int{200}}, tiers, logger)
	require.NoError(t, err)

	resolver := newTestResolver(t, contentRoot, engine)
	index, err := resolver.Index(context.Background())
	require.NoError(t, err)

	require.Equal(t, "Atelier", index.Title)
	require.Len(t, index.Works, 1)
	work := index.Works[0]
	require.Equal(t, []Tag{{ID: "ink", Name: "Ink"}}, work.Tags)
	img, ok := work.Image.Get()
	require.True(t, ok)
	require.Positive(t, img.Width)
	require.Positive(t, img.Height)
	require.Equal(t, "Body text.", work.Excerpt)
	require.Equal(t, []Tag{{ID: "ink", Name: "Ink"}}, index.Tags)
}

func TestWorkDropsMissingReferences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tags/ink.json", `{"slug": "ink", "title": "Ink"}`)
	writeFile(t, root, "tags/paper.json", `{"slug": "paper", "title": "Paper"}`)
	writeFile(t, root, "works/study.md", `---
title: Study
description: A study
image: missing.png
tags:
  - tag: ink
  - tag: ghost
  - tag: paper
images:
  - a.png
  - gone.png
  - b.png
---
# Heading

Some *body*.
`)

	resolver := newTestResolver(t, root, newFakeImages("a.png", "b.png"))
	result, err := resolver.Work(context.Background(), "study")
	require.NoError(t, err)
	work, ok := result.Get()
	require.True(t, ok)

	require.Equal(t, []Tag{{ID: "ink", Name: "Ink"}, {ID: "paper", Name: "Paper"}}, work.Tags)
	require.False(t, work.Image.IsFound())
	require.Len(t, work.Images, 2)
	require.Equal(t, "a.png", work.Images[0].URL)
	require.Equal(t, "b.png", work.Images[1].URL)
	require.Equal(t, "A study", work.Description)
	require.Contains(t, work.Text, "Some *body*.")
	require.Equal(t, "Some body.", work.Excerpt)
}

func TestTagMissingAndTraversal(t *testing.T) {
	resolver := newTestResolver(t, t.TempDir(), newFakeImages())
	for _, id := range []string{"nope", "../etc/passwd", ""} {
		tag, err := resolver.Tag(context.Background(), id)
		require.NoError(t, err)
		require.False(t, tag.IsFound(), id)
	}
}

func TestTagsEnumeratesSortedAndTolerant(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tags/zinc.json", `{"slug": "zinc", "title": "Zinc"}`)
	writeFile(t, root, "tags/blue-ink.json", `{"slug": "blue-ink"}`)
	writeFile(t, root, "tags/notes.txt", `ignored`)

	resolver := newTestResolver(t, root, newFakeImages())
	tags, err := resolver.Tags(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Tag{{ID: "blue-ink", Name: "Blue Ink"}, {ID: "zinc", Name: "Zinc"}}, tags)
}

func TestTagsEmptyDirectory(t *testing.T) {
	resolver := newTestResolver(t, t.TempDir(), newFakeImages())
	tags, err := resolver.Tags(context.Background())
	require.NoError(t, err)
	require.Empty(t, tags)
}

func TestInvalidRecordIsAnError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tags/bad.json", `{"slug": `)
	resolver := newTestResolver(t, root, newFakeImages())
	_, err := resolver.Tag(context.Background(), "bad")
	require.ErrorIs(t, err, ErrInvalidRecord)
}

func TestResolverMemoizesUntilReset(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "works/a.md", "---\ntitle: A\nimages:\n  - a.png\n---\n")
	source := newFakeImages("a.png")
	resolver := newTestResolver(t, root, source)
	ctx := context.Background()

	first, err := resolver.Works(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, os.Remove(filepath.Join(root, "works", "a.md")))
	again, err := resolver.Works(ctx)
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.Equal(t, 1, source.calls)

	resolver.Reset()
	after, err := resolver.Works(ctx)
	require.NoError(t, err)
	require.Empty(t, after)
}

func TestIndexMissingFile(t *testing.T) {
	resolver := newTestResolver(t, t.TempDir(), newFakeImages())
	_, err := resolver.Index(context.Background())
	require.Error(t, err)
}

func TestItemsRingAndCategories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "categories/prints.json", `{"title": "Prints"}`)
	writeFile(t, root, "categories/misc.json", `{}`)
	writeFile(t, root, "items/a.md", "---\ntitle: Alpha\ncategory: prints\nimages:\n  - a.png\n  - lost.png\n---\nA")
	writeFile(t, root, "items/b.md", "---\ntitle: Beta\ncategory: prints\n---\nB")
	writeFile(t, root, "items/c.md", "---\ncategory: misc\n---\nC")

	resolver := newTestResolver(t, root, newFakeImages("a.png"))
	ctx := context.Background()

	categories, err := resolver.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []Category{{Slug: "misc", Title: "Misc"}, {Slug: "prints", Title: "Prints"}}, categories)

	items, err := resolver.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, LinkRef{Slug: "c", Title: "C"}, items[0].Previous)
	require.Equal(t, LinkRef{Slug: "b", Title: "Beta"}, items[0].Next)
	require.Equal(t, LinkRef{Slug: "a", Title: "Alpha"}, items[2].Next)
	require.Len(t, items[0].Images, 1)

	item, err := resolver.Item(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, "prints", item.OrZero().Category)

	missing, err := resolver.Item(ctx, "zzz")
	require.NoError(t, err)
	require.False(t, missing.IsFound())
}
