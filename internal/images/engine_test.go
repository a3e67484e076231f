package images

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/atelier-press/atelier/internal/cache"
	_ "github.com/atelier-press/atelier/internal/thumbformat/avif"
	_ "github.com/atelier-press/atelier/internal/thumbformat/jpeg"
	_ "github.com/atelier-press/atelier/internal/thumbformat/png"
)

type testEnv struct {
	engine     *Engine
	publicRoot string
	tiers      cache.Tiers
}

func newTestEnv(t *testing.T, formats ...string) testEnv {
	t.Helper()
	if len(formats) == 0 {
		formats = []string{"png", "jpg"}
	}
	root := t.TempDir()
	publicRoot := filepath.Join(root, "public")
	require.NoError(t, os.MkdirAll(publicRoot, 0o755))

	durable, err := cache.NewStore(filepath.Join(root, "cache"))
	require.NoError(t, err)
	static, err := cache.NewStore(filepath.Join(root, "static"))
	require.NoError(t, err)
	tiers, err := cache.NewTiers(durable, static)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	engine, err := NewEngine(Options{
		PublicRoot: publicRoot,
		URLPrefix:  "_static",
		Formats:    formats,
		Widths:     []int{200},
	}, tiers, logger)
	require.NoError(t, err)
	return testEnv{engine: engine, publicRoot: publicRoot, tiers: tiers}
}

// writePNG 在 publicRoot 下生成纯色 PNG。
func writePNG(t *testing.T, dir, name string, width, height int, fill color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestNewEngineRequiresRasterFormat(t *testing.T) {
	env := newTestEnv(t)
	logger := logrus.New()
	_, err := NewEngine(Options{PublicRoot: env.publicRoot, Formats: []string{"webp2"}}, env.tiers, logger)
	require.Error(t, err)

	_, err = NewEngine(Options{PublicRoot: env.publicRoot, Formats: []string{"png"}}, cache.Tiers{}, logger)
	require.ErrorIs(t, err, cache.ErrStoreUnavailable)
}

func TestGetImageComputesAndCachesMetadata(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.publicRoot, "photos/sample.png", 80, 60, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	ctx := context.Background()

	first, err := env.engine.GetImage(ctx, "photos/sample.png")
	require.NoError(t, err)
	img, ok := first.Get()
	require.True(t, ok)
	require.Equal(t, 80, img.Width)
	require.Equal(t, 60, img.Height)
	require.Equal(t, "photos/sample.png", img.URL)
	require.Equal(t, "rgb(200,8,8)", img.DominantColor)
	require.Regexp(t, `^sample-png-[0-9a-f]{10}$`, string(img.ID))

	_, err = os.Stat(filepath.Join(env.tiers.Durable.Root(), "images", string(img.ID), "data.json"))
	require.NoError(t, err)

	// 进程内记忆命中，不再解码。
	again, err := env.engine.GetImage(ctx, "/photos/sample.png")
	require.NoError(t, err)
	require.True(t, again.IsFound())
	require.EqualValues(t, 1, env.engine.Stats().Decodes)

	// Reset 后从 data.json 读取。
	env.engine.Reset()
	reloaded, err := env.engine.GetImage(ctx, "photos/sample.png")
	require.NoError(t, err)
	require.Equal(t, img, reloaded.OrZero())
	stats := env.engine.Stats()
	require.EqualValues(t, 1, stats.Decodes)
	require.EqualValues(t, 2, stats.MetadataHits)
}

func TestGetImageMissingSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, src := range []string{"nope.png", "../outside.png", ""} {
		result, err := env.engine.GetImage(ctx, src)
		require.NoError(t, err, src)
		require.False(t, result.IsFound(), src)
	}
	require.EqualValues(t, 3, env.engine.Stats().Missing)
}

func TestGetImageRecoversFromCorruptMetadata(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, env.publicRoot, "a.png", 10, 10, color.White)
	ctx := context.Background()

	result, err := env.engine.GetImage(ctx, "a.png")
	require.NoError(t, err)
	img := result.OrZero()

	dataPath := filepath.Join(env.tiers.Durable.Root(), "images", string(img.ID), "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`{"id":"a-png`), 0o644))

	env.engine.Reset()
	result, err = env.engine.GetImage(ctx, "a.png")
	require.NoError(t, err)
	require.Equal(t, img, result.OrZero())
	require.EqualValues(t, 2, env.engine.Stats().Decodes)
}

func TestGetImageUndecodableSourceFails(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.publicRoot, "broken.png"), []byte("not an image"), 0o644))

	_, err := env.engine.GetImage(context.Background(), "broken.png")
	require.Error(t, err)
}

func TestDominantColorSkipsTransparentPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.Set(0, 0, color.NRGBA{A: 0})
	img.Set(1, 0, color.NRGBA{A: 0})
	img.Set(2, 0, color.NRGBA{A: 0})
	img.Set(3, 0, color.NRGBA{R: 0, G: 0, B: 255, A: 255})
	require.Equal(t, "rgb(8,8,248)", dominantColor(img))

	empty := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	require.Equal(t, "rgb(0,0,0)", dominantColor(empty))
}

func TestDecodeMetadataRejectsIncompleteRecords(t *testing.T) {
	img, err := DecodeMetadata([]byte(`{"id":"a-png-0123456789","url":"/a.png","width":4,"height":3}`))
	require.NoError(t, err)
	require.Equal(t, 4, img.Width)

	for _, raw := range []string{`{}`, `{"id":"a-png-0123456789","width":0,"height":3}`, `{"width":4,"height":3}`, `not json`} {
		_, err := DecodeMetadata([]byte(raw))
		require.ErrorIs(t, err, ErrCorruptMetadata, raw)
	}
}
