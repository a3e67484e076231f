package identity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestIdentifyIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "sample.png", []byte("pixels"))

	first, err := Identify(p)
	require.NoError(t, err)
	second, err := Identify(p)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.True(t, strings.HasPrefix(string(first), "sample-png-"))
	require.Len(t, strings.TrimPrefix(string(first), "sample-png-"), HashLength)
}

func TestIdentifyChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "sample.png", []byte("pixels"))
	before, err := Identify(p)
	require.NoError(t, err)

	writeFile(t, dir, "sample.png", []byte("pixelz"))
	after, err := Identify(p)
	require.NoError(t, err)

	require.NotEqual(t, before, after)
}

func TestIdentifyKnownDigest(t *testing.T) {
	dir := t.TempDir()
	// md5("") = d41d8cd98f00b204e9800998ecf8427e
	p := writeFile(t, dir, "empty.v2.jpg", nil)

	id, err := Identify(p)
	require.NoError(t, err)
	require.Equal(t, ImageID("empty-v2-jpg-d41d8cd98f"), id)
}

func TestIdentifyMissingFile(t *testing.T) {
	_, err := Identify(filepath.Join(t.TempDir(), "nope.png"))
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestIdentifyDirectoryIsNotFound(t *testing.T) {
	_, err := Identify(t.TempDir())
	require.ErrorIs(t, err, ErrNotFound)
}
