package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// projectRoot 返回仓库根目录；go test 以包目录作为工作目录，main 包即位于根目录。
func projectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("无法定位项目根目录: %v", err)
	}
	return dir
}

func configFixture(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(projectRoot(t), "internal", "config", "testdata", name)
}

// useBufferWriters 在测试期间将 stdOut/stdErr 替换为内存缓冲区。
func useBufferWriters(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	prevOut, prevErr := stdOut, stdErr
	stdOut, stdErr = outBuf, errBuf

	t.Cleanup(func() {
		stdOut = prevOut
		stdErr = prevErr
	})
	return outBuf, errBuf
}

// writeConfigFile 在 dir 下写入 atelier.toml 并返回路径。
func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	file := filepath.Join(dir, "atelier.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}
}
