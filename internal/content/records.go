package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/tidwall/jsonc"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	jsonExt     = ".json"
	markdownExt = ".md"
)

type rawTag struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type tagRef struct {
	Tag string `json:"tag" yaml:"tag" toml:"tag"`
}

type workRef struct {
	Work string `json:"work"`
}

type rawWork struct {
	Title       string   `yaml:"title" toml:"title" json:"title"`
	Description string   `yaml:"description" toml:"description" json:"description"`
	Image       string   `yaml:"image" toml:"image" json:"image"`
	Tags        []tagRef `yaml:"tags" toml:"tags" json:"tags"`
	Images      []string `yaml:"images" toml:"images" json:"images"`
}

type rawIndex struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Works       []workRef `json:"works"`
	Tags        []tagRef  `json:"tags"`
}

type rawCategory struct {
	Title string `json:"title"`
}

type rawItem struct {
	Title       string   `yaml:"title" toml:"title" json:"title"`
	Image       string   `yaml:"image" toml:"image" json:"image"`
	Description string   `yaml:"description" toml:"description" json:"description"`
	Category    string   `yaml:"category" toml:"category" json:"category"`
	Images      []string `yaml:"images" toml:"images" json:"images"`
}

// readJSONRecord 读取 JSON 记录（允许注释与尾逗号）。文件不存在时返回 fs.ErrNotExist。
func readJSONRecord(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, path, err)
	}
	return nil
}

// readMarkdownRecord 解析 front-matter，返回正文。没有 front-matter 时整个文件视为正文。
func readMarkdownRecord(path string, v any) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	body, err := frontmatter.Parse(bytes.NewReader(data), v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRecord, path, err)
	}
	return string(body), nil
}

// listIDs 枚举目录下指定扩展名的文件，返回去掉扩展名后的 id，按文件名排序。
// 目录不存在时返回空列表。
func listIDs(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// recordPath 拒绝包含路径分隔符的 id，避免越出目录。
func recordPath(dir, id, ext string) (string, bool) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	return filepath.Join(dir, id+ext), true
}

// titleFromSlug 在记录缺少标题时由 slug 生成，例如 "blue-ink" → "Blue Ink"。
func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
