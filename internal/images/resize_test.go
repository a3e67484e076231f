package images

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/atelier-press/atelier/internal/cache"
)

func TestFitSize(t *testing.T) {
	src := Image{Width: 800, Height: 600}
	cases := []struct {
		name   string
		size   Size
		width  int
		height int
	}{
		{"derive height", Size{Width: 200}, 200, 150},
		{"explicit box", Size{Width: 200, Height: 200}, 200, 200},
		{"no upscale keeps requested ratio", Size{Width: 2000, Height: 1000}, 800, 400},
		{"no upscale derived height", Size{Width: 2000}, 800, 600},
		{"clamp height", Size{Width: 400, Height: 900}, 267, 600},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h, err := fitSize(src, tc.size)
			require.NoError(t, err)
			require.Equal(t, tc.width, w)
			require.Equal(t, tc.height, h)
		})
	}

	_, _, err := fitSize(src, Size{Width: 0})
	require.ErrorIs(t, err, ErrInvalidSize)
	_, _, err = fitSize(Image{}, Size{Width: 10})
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestResizeTierOrder(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.publicRoot, "sample.png", 800, 600, color.NRGBA{G: 128, A: 255})
	ctx := context.Background()

	img := env.engine.mustImage(t, "sample.png")
	thumb, err := env.engine.Resize(ctx, img, Size{Width: 2000, Height: 1000}, "jpg")
	require.NoError(t, err)
	require.Equal(t, 800, thumb.Width)
	require.Equal(t, 400, thumb.Height)
	require.Equal(t, "jpg", thumb.Format)
	require.Equal(t, "/_static/images/"+string(img.ID)+"/800x400.jpg", thumb.URL)

	staticPath := filepath.Join(env.tiers.Static.Root(), "images", string(img.ID), "800x400.jpg")
	cachePath := filepath.Join(env.tiers.Durable.Root(), "images", string(img.ID), "800x400.jpg")
	decoded, err := imaging.Open(staticPath)
	require.NoError(t, err)
	require.Equal(t, 800, decoded.Bounds().Dx())
	require.Equal(t, 400, decoded.Bounds().Dy())
	_, err = os.Stat(cachePath)
	require.NoError(t, err)
	require.EqualValues(t, 1, env.engine.Stats().Encodes)

	// 新进程：静态层已存在，无需任何工作。
	env.engine.Reset()
	again, err := env.engine.Resize(ctx, img, Size{Width: 2000, Height: 1000}, "jpg")
	require.NoError(t, err)
	require.Equal(t, thumb, again)
	require.EqualValues(t, 1, env.engine.Stats().StaticHits)

	// 静态层被清空：从缓存层复制，不重新编码。
	require.NoError(t, os.RemoveAll(env.tiers.Static.Root()))
	env.engine.Reset()
	again, err = env.engine.Resize(ctx, img, Size{Width: 2000, Height: 1000}, "jpg")
	require.NoError(t, err)
	require.Equal(t, thumb, again)
	stats := env.engine.Stats()
	require.EqualValues(t, 1, stats.CacheCopies)
	require.EqualValues(t, 1, stats.Encodes)
	_, err = os.Stat(staticPath)
	require.NoError(t, err)
}

func TestResizeRejectsStaleSource(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.publicRoot, "sample.png", 40, 40, color.White)
	img := env.engine.mustImage(t, "sample.png")

	writePNG(t, env.publicRoot, "sample.png", 40, 40, color.Black)
	_, err := env.engine.Resize(context.Background(), img, Size{Width: 20}, "png")
	require.ErrorIs(t, err, ErrStaleImage)
}

func TestResizeUnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.Resize(context.Background(), Image{ID: "x", Width: 10, Height: 10}, Size{Width: 5}, "tiff")
	require.Error(t, err)
}

func TestGetPicture(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.publicRoot, "small.png", 300, 200, color.White)
	img := env.engine.mustImage(t, "small.png")

	picture, err := env.engine.GetPicture(context.Background(), img, []Size{{Width: 200}, {Width: 400}, {Width: 800}})
	require.NoError(t, err)
	require.Len(t, picture.Sources, 2)

	prefix := "/_static/images/" + string(img.ID)
	// png 与 jpg 都是 Raster 格式，按配置顺序排列；400 与 800 都被限制到 300x200，只保留一次。
	require.Equal(t, "image/png", picture.Sources[0].Type)
	require.Equal(t, prefix+"/200x133.png 200w, "+prefix+"/300x200.png 300w", picture.Sources[0].SrcSet)
	require.Equal(t, "image/jpeg", picture.Sources[1].Type)

	require.Equal(t, Thumb{URL: prefix + "/300x200.png", Width: 300, Height: 200, Format: "png"}, picture.Img)
}

func TestGetPictureRasterAndAvif(t *testing.T) {
	env := newTestEnv(t, "jpg", "avif")
	writePNG(t, env.publicRoot, "small.png", 300, 200, color.White)
	img := env.engine.mustImage(t, "small.png")

	picture, err := env.engine.GetPicture(context.Background(), img, []Size{{Width: 200}, {Width: 400}})
	require.NoError(t, err)
	require.Len(t, picture.Sources, 2)

	prefix := "/_static/images/" + string(img.ID)
	// avif 是非 Raster 格式，排在 jpg 之前；<img> 回退到最大宽度的 jpg。
	require.Equal(t, "image/avif", picture.Sources[0].Type)
	require.Equal(t, prefix+"/200x133.avif 200w, "+prefix+"/300x200.avif 300w", picture.Sources[0].SrcSet)
	require.Equal(t, "image/jpeg", picture.Sources[1].Type)
	require.Equal(t, prefix+"/200x133.jpg 200w, "+prefix+"/300x200.jpg 300w", picture.Sources[1].SrcSet)
	require.Equal(t, Thumb{URL: prefix + "/300x200.jpg", Width: 300, Height: 200, Format: "jpg"}, picture.Img)

	locator := cache.Locator{Namespace: Namespace, Path: string(img.ID) + "/300x200.avif"}
	for name, store := range map[string]cache.Store{"durable": env.tiers.Durable, "static": env.tiers.Static} {
		result, err := store.Get(context.Background(), locator)
		require.NoError(t, err, name)
		cfg, format, err := image.DecodeConfig(result.Reader)
		result.Reader.Close()
		require.NoError(t, err, name)
		require.Equal(t, "avif", format, name)
		require.Equal(t, 300, cfg.Width, name)
		require.Equal(t, 200, cfg.Height, name)
	}
}

func TestGetPictureDefaultWidths(t *testing.T) {
	env := newTestEnv(t, "jpg")
	writePNG(t, env.publicRoot, "big.png", 1000, 500, color.White)
	img := env.engine.mustImage(t, "big.png")

	picture, err := env.engine.GetPicture(context.Background(), img, nil)
	require.NoError(t, err)
	require.Len(t, picture.Sources, 1)
	require.Equal(t, 200, picture.Img.Width)
	require.Equal(t, 100, picture.Img.Height)
}

func (e *Engine) mustImage(t *testing.T, src string) Image {
	t.Helper()
	result, err := e.GetImage(context.Background(), src)
	require.NoError(t, err)
	img, ok := result.Get()
	require.True(t, ok, "image %s should exist", src)
	return img
}
