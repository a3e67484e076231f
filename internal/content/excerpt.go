package content

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const excerptLimit = 160

var markdown = goldmark.New()

// excerpt 提取正文首段的纯文本，超过 limit 个字符时在词边界截断并追加省略号。
func excerpt(body string, limit int) string {
	src := []byte(body)
	root := markdown.Parser().Parse(text.NewReader(src))

	var paragraph *ast.Paragraph
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if p, ok := n.(*ast.Paragraph); ok {
			paragraph = p
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if paragraph == nil {
		return ""
	}

	var sb strings.Builder
	_ = ast.Walk(paragraph, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(node.Value)
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	plain := strings.Join(strings.Fields(sb.String()), " ")
	if utf8.RuneCountInString(plain) <= limit {
		return plain
	}
	runes := []rune(plain)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
