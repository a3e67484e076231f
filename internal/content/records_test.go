package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExcerpt(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"first paragraph only", "Hello **world**\n\nSecond paragraph.", "Hello world"},
		{"skips heading", "# Title\n\nIntro with `code` and [link](http://x).", "Intro with code and link."},
		{"soft break joins lines", "line one\nline two", "line one line two"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, excerpt(tc.body, excerptLimit))
		})
	}
}

func TestExcerptTruncatesOnWordBoundary(t *testing.T) {
	body := strings.Repeat("word ", 10)
	got := excerpt(body, 12)
	require.Equal(t, "word word…", got)
}

func TestTitleFromSlug(t *testing.T) {
	require.Equal(t, "Blue Ink", titleFromSlug("blue-ink"))
	require.Equal(t, "Paper Study", titleFromSlug("paper_study"))
}

func TestRecordPathRejectsSeparators(t *testing.T) {
	_, ok := recordPath("/content/tags", "a/b", jsonExt)
	require.False(t, ok)
	path, ok := recordPath("/content/tags", "ink", jsonExt)
	require.True(t, ok)
	require.Equal(t, "/content/tags/ink.json", path)
}
