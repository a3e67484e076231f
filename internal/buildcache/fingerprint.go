package buildcache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zeebo/blake3"
)

// Fingerprint 计算若干文件或目录内容的 BLAKE3 摘要，作为内容判别值使用。
// 目录按字典序递归遍历；摘要覆盖参数位置、相对路径与文件字节，不含绝对路径，
// 同一份内容放在不同目录下结果相同。不存在的路径也会参与计算，因此增删文件都会改变结果。
func Fingerprint(paths ...string) (string, error) {
	hasher := blake3.New()
	for i, root := range paths {
		writeField(hasher, "source", strconv.Itoa(i))

		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				writeField(hasher, "missing", "")
				continue
			}
			return "", err
		}
		if !info.IsDir() {
			if err := hashFile(hasher, root, filepath.Base(root)); err != nil {
				return "", err
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			return hashFile(hasher, path, filepath.ToSlash(rel))
		})
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", root, err)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func hashFile(w io.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	writeField(w, "file", name)
	writeField(w, "size", strconv.FormatInt(info.Size(), 10))
	_, err = io.Copy(w, f)
	return err
}

// writeField 以长度前缀写入，避免不同字段拼接后产生相同字节序列。
func writeField(w io.Writer, label, value string) {
	io.WriteString(w, label)
	io.WriteString(w, ":")
	io.WriteString(w, strconv.Itoa(len(value)))
	io.WriteString(w, ":")
	io.WriteString(w, value)
}
