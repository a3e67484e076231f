package content

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/atelier-press/atelier/internal/identity"
	"github.com/atelier-press/atelier/internal/images"
	"github.com/atelier-press/atelier/internal/optional"
)

// fakeImages 按路径返回固定尺寸的图片，未登记的路径视为缺失。
type fakeImages struct {
	mu    sync.Mutex
	known map[string]images.Image
	calls int
}

func newFakeImages(srcs ...string) *fakeImages {
	f := &fakeImages{known: make(map[string]images.Image)}
	for _, src := range srcs {
		f.known[src] = images.Image{ID: identity.ImageID(identity.Sanitize(src) + "-0123456789"), URL: src, Width: 40, Height: 30}
	}
	return f
}

func (f *fakeImages) GetImage(_ context.Context, src string) (optional.Option[images.Image], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if img, ok := f.known[src]; ok {
		return optional.Found(img), nil
	}
	return optional.Missing[images.Image](), nil
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestResolver(t *testing.T, root string, source ImageSource) *Resolver {
	t.Helper()
	resolver, err := NewResolver(root, source, newTestLogger())
	require.NoError(t, err)
	return resolver
}

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}
