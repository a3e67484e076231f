package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/atelier-press/atelier/internal/logging"
	"github.com/atelier-press/atelier/internal/pipeline"
	"github.com/atelier-press/atelier/internal/server"
	"github.com/atelier-press/atelier/internal/server/routes"
	"github.com/atelier-press/atelier/internal/version"
)

func newServeCommand(opts *cliOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动预览服务器",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rt, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "内容或图片变化时清空进程内缓存")
	return cmd
}

func runServe(ctx context.Context, rt *runtime, watch bool) error {
	p, err := pipeline.New(rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	port := rt.cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:          rt.logger,
		Static:          p.StaticStore(),
		StaticURLPrefix: rt.cfg.Global.StaticURLPrefix,
		ListenPort:      port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticsRoutes(app, p, rt.logger)

	if watch {
		w, err := newContentWatcher(rt.logger, rt.cfg.Global.WatchDebounce.DurationValue(), p.Reset)
		if err != nil {
			return fmt.Errorf("初始化文件监听失败: %w", err)
		}
		defer w.Close()
		for _, root := range []string{rt.cfg.Global.ContentRoot, rt.cfg.Global.PublicRoot} {
			if err := w.AddTree(root); err != nil {
				return fmt.Errorf("监听 %s 失败: %w", root, err)
			}
		}
		go w.Run(ctx)
	}

	fields := logging.BaseFields("listen", rt.configPath)
	fields["port"] = port
	fields["watch"] = watch
	fields["version"] = version.Full()
	rt.logger.WithFields(fields).Info("Fiber 服务启动")

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		rt.logger.WithField("action", "shutdown").Info("收到退出信号，关闭服务")
		return app.Shutdown()
	}
}

// contentWatcher 递归监听目录，事件在 debounce 窗口内合并后只触发一次 onChange。
type contentWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *logrus.Logger
	debounce *debouncer
}

func newContentWatcher(logger *logrus.Logger, wait time.Duration, onChange func()) (*contentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &contentWatcher{
		watcher: watcher,
		logger:  logger,
		debounce: newDebouncer(wait, func() {
			onChange()
			logger.WithField("action", "watch_reload").Info("内容变化，已清空进程内缓存")
		}),
	}, nil
}

// AddTree 监听 root 及其全部子目录；root 不存在时忽略。
func (w *contentWatcher) AddTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Run 处理监听事件直到 ctx 结束。
func (w *contentWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.debounce.Stop()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.AddTree(event.Name); err != nil {
						w.logger.WithError(err).WithField("path", event.Name).Warn("watch_add_failed")
					}
				}
			}
			w.logger.WithFields(logrus.Fields{"action": "watch_event", "path": event.Name, "op": event.Op.String()}).Debug("文件变化")
			w.debounce.Trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).WithField("action", "watch_error").Warn("文件监听错误")
		}
	}
}

// Close 释放底层 watcher。
func (w *contentWatcher) Close() error {
	w.debounce.Stop()
	return w.watcher.Close()
}

// debouncer 在最后一次 Trigger 之后等待 wait 再调用 fn。
type debouncer struct {
	mu    sync.Mutex
	wait  time.Duration
	fn    func()
	timer *time.Timer
}

func newDebouncer(wait time.Duration, fn func()) *debouncer {
	return &debouncer{wait: wait, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
