package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/atelier-press/atelier/internal/cache"
	"github.com/atelier-press/atelier/internal/images"
)

func newImagesCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "列出持久缓存层中的图片元数据与缩略图",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			store, err := cache.NewStore(rt.cfg.Global.CacheRoot)
			if err != nil {
				return err
			}
			rows, err := collectInventory(cmd.Context(), store)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(stdOut, "缓存中没有图片")
				return nil
			}
			fmt.Fprintln(stdOut, renderInventory(rows))
			return nil
		},
	}
}

// inventoryRow 汇总一个图片 id 目录下的元数据与缩略图。
type inventoryRow struct {
	ID     string
	Image  *images.Image
	Thumbs []string
	Bytes  int64
}

func collectInventory(ctx context.Context, store cache.Store) ([]inventoryRow, error) {
	entries, err := store.List(ctx, images.Namespace)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*inventoryRow)
	for _, entry := range entries {
		id, name, ok := strings.Cut(entry.Locator.Path, "/")
		if !ok {
			continue
		}
		row := byID[id]
		if row == nil {
			row = &inventoryRow{ID: id}
			byID[id] = row
		}
		row.Bytes += entry.SizeBytes
		if name == "data.json" {
			row.Image = readMetadata(ctx, store, entry.Locator)
			continue
		}
		row.Thumbs = append(row.Thumbs, name)
	}

	rows := make([]inventoryRow, 0, len(byID))
	for _, row := range byID {
		sort.Strings(row.Thumbs)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// readMetadata 解析失败返回 nil，表格中显示为损坏。
func readMetadata(ctx context.Context, store cache.Store, locator cache.Locator) *images.Image {
	result, err := store.Get(ctx, locator)
	if err != nil {
		return nil
	}
	defer result.Reader.Close()
	raw, err := io.ReadAll(result.Reader)
	if err != nil {
		return nil
	}
	img, err := images.DecodeMetadata(raw)
	if err != nil {
		return nil
	}
	return &img
}

func renderInventory(rows []inventoryRow) string {
	headers := []string{"ID", "Size", "Color", "Thumbs", "Bytes"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight}
	body := make([][]string, 0, len(rows))
	var total int64
	for _, row := range rows {
		size, color := "corrupt", "-"
		if row.Image != nil {
			size = fmt.Sprintf("%dx%d", row.Image.Width, row.Image.Height)
			color = row.Image.DominantColor
		}
		body = append(body, []string{
			row.ID,
			size,
			color,
			strconv.Itoa(len(row.Thumbs)),
			humanize.Bytes(uint64(row.Bytes)),
		})
		total += row.Bytes
	}
	body = append(body, []string{"total", "", "", strconv.Itoa(len(rows)), humanize.Bytes(uint64(total))})
	return renderTable(headers, body, aligns)
}
