// Package identity derives content-addressed identifiers for source images.
//
// An ImageID is the sanitized base name of the file followed by the first
// HashLength hex characters of the MD5 digest of its bytes. Two files with the
// same ImageID are byte-identical, which lets every derived artifact be cached
// forever under that id.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// HashLength 是 id 中保留的十六进制摘要长度。
const HashLength = 10

// ErrNotFound 表示源文件不存在，调用方应将其视为“图片缺失”而不是构建失败。
var ErrNotFound = errors.New("source file not found")

// ImageID 是源图片的内容寻址标识，可直接用作目录名。
type ImageID string

func (id ImageID) String() string {
	return string(id)
}

// Identify 读取 filePath 的完整内容并生成 ImageID。
func Identify(filePath string) (ImageID, error) {
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, filePath)
	}

	digest, err := Digest(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", filePath, err)
	}
	return Compose(filepath.Base(filePath), digest), nil
}

// Digest 返回 r 全部内容的 MD5 十六进制摘要。
func Digest(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Compose 拼接 sanitize(base) 与摘要前缀。
func Compose(base, digest string) ImageID {
	if len(digest) > HashLength {
		digest = digest[:HashLength]
	}
	return ImageID(Sanitize(base) + "-" + digest)
}

// Sanitize 将文件名中的 "." 替换为 "-"，使其可作为单层目录名。
func Sanitize(base string) string {
	return strings.ReplaceAll(base, ".", "-")
}
