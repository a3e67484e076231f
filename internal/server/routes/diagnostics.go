package routes

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/atelier-press/atelier/internal/config"
	"github.com/atelier-press/atelier/internal/content"
	"github.com/atelier-press/atelier/internal/images"
	"github.com/atelier-press/atelier/internal/optional"
	"github.com/atelier-press/atelier/internal/pipeline"
	"github.com/atelier-press/atelier/internal/server"
	"github.com/atelier-press/atelier/internal/thumbformat"
	"github.com/atelier-press/atelier/internal/version"
)

// Source 是诊断接口读取数据所需的最小集合，pipeline.Pipeline 即为实现。
type Source interface {
	IndexFromCache(ctx context.Context) (content.Index, error)
	WorksFromCache(ctx context.Context) ([]content.Work, error)
	WorkFromCache(ctx context.Context, id string) (optional.Option[content.Work], error)
	WorkNeighbors(ctx context.Context, id string) (optional.Option[pipeline.Neighbors], error)
	TagsFromCache(ctx context.Context) ([]content.Tag, error)
	ItemsFromCache(ctx context.Context) ([]content.Item, error)
	CategoriesFromCache(ctx context.Context) ([]content.Category, error)
	Image(ctx context.Context, src string) (optional.Option[images.Image], error)
	Picture(ctx context.Context, src string, sizes []images.Size) (optional.Option[images.Picture], error)
	Stats() pipeline.Stats
	Config() *config.Config
}

// RegisterDiagnosticsRoutes 暴露 /-/ 下的 JSON 诊断接口，便于预览时核对解析结果与缓存命中。
func RegisterDiagnosticsRoutes(app *fiber.App, source Source, logger *logrus.Logger) {
	if app == nil || source == nil || logger == nil {
		return
	}
	h := &diagnostics{source: source, logger: logger}

	app.Get("/-/site", h.site)
	app.Get("/-/index", h.index)
	app.Get("/-/works", h.works)
	app.Get("/-/works/:id", h.work)
	app.Get("/-/tags", h.tags)
	app.Get("/-/items", h.items)
	app.Get("/-/categories", h.categories)
	app.Get("/-/images", h.image)
	app.Get("/-/pictures", h.picture)
	app.Get("/-/formats", h.formats)
	app.Get("/-/stats", h.stats)
}

type diagnostics struct {
	source Source
	logger *logrus.Logger
}

type workPayload struct {
	content.Work
	Previous *content.Work `json:"previous,omitempty"`
	Next     *content.Work `json:"next,omitempty"`
}

type formatPayload struct {
	Key         string `json:"key"`
	MIMEType    string `json:"mime_type"`
	Description string `json:"description"`
	Raster      bool   `json:"raster"`
}

type sitePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BaseURL     string `json:"base_url"`
	StaticURL   string `json:"static_url"`
}

// site 合并 [Site] 配置与首页记录；未配置标题时沿用 index.json 的 title。
func (h *diagnostics) site(c fiber.Ctx) error {
	cfg := h.source.Config()
	index, err := h.source.IndexFromCache(c.Context())
	if err != nil {
		return h.internal(c, "site", err)
	}
	payload := sitePayload{
		Title:       cfg.Site.Title,
		Description: index.Description,
		BaseURL:     strings.TrimRight(cfg.Site.BaseURL, "/"),
		StaticURL:   cfg.Global.StaticURLPrefix,
	}
	if payload.Title == "" {
		payload.Title = index.Title
	}
	return c.JSON(payload)
}

func (h *diagnostics) index(c fiber.Ctx) error {
	index, err := h.source.IndexFromCache(c.Context())
	if err != nil {
		return h.internal(c, "index", err)
	}
	return c.JSON(index)
}

func (h *diagnostics) works(c fiber.Ctx) error {
	works, err := h.source.WorksFromCache(c.Context())
	if err != nil {
		return h.internal(c, "works", err)
	}
	return c.JSON(works)
}

func (h *diagnostics) work(c fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	result, err := h.source.WorkFromCache(c.Context(), id)
	if err != nil {
		return h.internal(c, "work", err)
	}
	work, ok := result.Get()
	if !ok {
		return server.RenderError(c, fiber.StatusNotFound, "work_not_found")
	}
	payload := workPayload{Work: work}
	neighbors, err := h.source.WorkNeighbors(c.Context(), id)
	if err != nil {
		return h.internal(c, "work_neighbors", err)
	}
	if n, ok := neighbors.Get(); ok {
		payload.Previous = &n.Previous
		payload.Next = &n.Next
	}
	return c.JSON(payload)
}

func (h *diagnostics) tags(c fiber.Ctx) error {
	tags, err := h.source.TagsFromCache(c.Context())
	if err != nil {
		return h.internal(c, "tags", err)
	}
	return c.JSON(tags)
}

func (h *diagnostics) items(c fiber.Ctx) error {
	items, err := h.source.ItemsFromCache(c.Context())
	if err != nil {
		return h.internal(c, "items", err)
	}
	return c.JSON(items)
}

func (h *diagnostics) categories(c fiber.Ctx) error {
	categories, err := h.source.CategoriesFromCache(c.Context())
	if err != nil {
		return h.internal(c, "categories", err)
	}
	return c.JSON(categories)
}

func (h *diagnostics) image(c fiber.Ctx) error {
	src := strings.TrimSpace(c.Query("src"))
	if src == "" {
		return server.RenderError(c, fiber.StatusBadRequest, "src_required")
	}
	result, err := h.source.Image(c.Context(), src)
	if err != nil {
		return h.internal(c, "image", err)
	}
	img, ok := result.Get()
	if !ok {
		return server.RenderError(c, fiber.StatusNotFound, "image_not_found")
	}
	return c.JSON(img)
}

func (h *diagnostics) picture(c fiber.Ctx) error {
	src := strings.TrimSpace(c.Query("src"))
	if src == "" {
		return server.RenderError(c, fiber.StatusBadRequest, "src_required")
	}
	sizes, ok := parseWidths(c.Query("w"))
	if !ok {
		return server.RenderError(c, fiber.StatusBadRequest, "invalid_width")
	}
	result, err := h.source.Picture(c.Context(), src, sizes)
	if err != nil {
		return h.internal(c, "picture", err)
	}
	picture, found := result.Get()
	if !found {
		return server.RenderError(c, fiber.StatusNotFound, "image_not_found")
	}
	return c.JSON(picture)
}

func (h *diagnostics) formats(c fiber.Ctx) error {
	list := thumbformat.List()
	payload := make([]formatPayload, 0, len(list))
	for _, meta := range list {
		payload = append(payload, formatPayload{
			Key:         meta.Key,
			MIMEType:    meta.MIMEType,
			Description: meta.Description,
			Raster:      meta.Raster,
		})
	}
	return c.JSON(payload)
}

func (h *diagnostics) stats(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": version.Full(),
		"stats":   h.source.Stats(),
	})
}

func (h *diagnostics) internal(c fiber.Ctx, action string, err error) error {
	h.logger.WithError(err).WithFields(logrus.Fields{
		"action":     action,
		"request_id": server.RequestID(c),
	}).Error("diagnostics request failed")
	return server.RenderError(c, fiber.StatusInternalServerError, "internal_error")
}

// parseWidths 解析 "200,400" 形式的宽度列表，空字符串表示使用默认宽度。
func parseWidths(raw string) ([]images.Size, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	sizes := make([]images.Size, 0, len(parts))
	for _, part := range parts {
		width, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || width <= 0 {
			return nil, false
		}
		sizes = append(sizes, images.Size{Width: width})
	}
	return sizes, true
}
