package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLoggingFallbackToStdout(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root 用户不受目录权限限制")
	}
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.Mkdir(blocked, 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.Chmod(blocked, 0o000); err != nil {
		t.Fatalf("设置目录权限失败: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o755) })

	logPath := filepath.Join(blocked, "sub", "atelier.log")
	configPath := writeConfigFile(t, dir, fmt.Sprintf(`
LogLevel = "info"
LogFilePath = "%s"
ListenPort = 5000
`, logPath))

	out, _ := useBufferWriters(t)
	code := run([]string{"check-config", "--config", configPath})
	if code != 0 {
		t.Fatalf("日志 fallback 不应导致失败，得到 %d", code)
	}
	t.Log(out.String())
}
