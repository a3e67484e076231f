package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atelier-press/atelier/internal/cache"
)

// AppOptions controls how the preview application is assembled.
type AppOptions struct {
	Logger *logrus.Logger
	// Static is the per-build output tier that holds derived thumbnails.
	Static cache.Store
	// StaticURLPrefix is the public path under which Static is mounted.
	StaticURLPrefix string
	ListenPort      int
}

const contextKeyRequestID = "_atelier_request_id"

// DiagnosticsPrefix 下的路径由 routes 包注册。
const DiagnosticsPrefix = "/-/"

func init() {
	// 部分系统的 mime 表缺少 avif。
	_ = mime.AddExtensionType(".avif", "image/avif")
}

// NewApp builds a Fiber application with request-id middleware, panic
// recovery and the static tier handler.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Static == nil {
		return nil, errors.New("static store is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}
	prefix := "/" + strings.Trim(opts.StaticURLPrefix, "/")
	if prefix == "/" || strings.HasPrefix(prefix+"/", DiagnosticsPrefix) {
		return nil, fmt.Errorf("invalid static url prefix: %q", opts.StaticURLPrefix)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	handler := &staticHandler{store: opts.Static, logger: opts.Logger, prefix: prefix}
	app.Get(prefix+"/*", handler.Handle)
	app.Head(prefix+"/*", handler.Handle)

	return app, nil
}

// requestContextMiddleware 为每个请求生成请求 ID。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

// RenderError 以统一的 JSON 结构返回错误码。
func RenderError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

type staticHandler struct {
	store  cache.Store
	logger *logrus.Logger
	prefix string
}

// Handle 从静态输出层读取文件。静态层只包含已派生的文件，未命中直接返回 404，
// 不会在请求路径上触发编码。
func (h *staticHandler) Handle(c fiber.Ctx) error {
	started := time.Now()
	rel := strings.TrimPrefix(string(c.Request().URI().Path()), h.prefix)
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if rel == "" {
		return RenderError(c, fiber.StatusNotFound, "static_not_found")
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	locator := cache.Locator{Path: rel}
	result, err := h.store.Get(ctx, locator)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return RenderError(c, fiber.StatusNotFound, "static_not_found")
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action":     "static_get",
			"locator":    locator.String(),
			"request_id": RequestID(c),
		}).Warn("static_get_failed")
		return RenderError(c, fiber.StatusInternalServerError, "static_read_failed")
	}
	defer result.Reader.Close()

	if contentType := mime.TypeByExtension(path.Ext(rel)); contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	c.Response().Header.SetContentLength(int(result.Entry.SizeBytes))
	c.Status(fiber.StatusOK)

	if c.Method() == http.MethodHead {
		return nil
	}
	_, err = io.Copy(c.Response().BodyWriter(), result.Reader)
	h.logger.WithFields(logrus.Fields{
		"action":     "static_serve",
		"locator":    locator.String(),
		"request_id": RequestID(c),
		"elapsed_ms": time.Since(started).Milliseconds(),
	}).Debug("static served")
	return err
}
