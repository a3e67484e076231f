package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/atelier-press/atelier/internal/config"
	"github.com/atelier-press/atelier/internal/logging"
	"github.com/atelier-press/atelier/internal/pipeline"
	"github.com/atelier-press/atelier/internal/version"
)

func newBuildCommand(opts *cliOptions) *cobra.Command {
	var buildID string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "解析内容并预热静态输出层",
		Long: `build 为本次构建生成 build id（写入 BuildIDEnv 指定的环境变量，
同一构建内的子进程共享），通过构建缓存解析首页、作品、标签与条目，
并为引用到的每张图片生成缩略图。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			return runBuild(cmd, rt, buildID)
		},
	}
	cmd.Flags().StringVar(&buildID, "build-id", "", "指定 build id（默认随机生成）")
	return cmd
}

func runBuild(cmd *cobra.Command, rt *runtime, buildID string) error {
	if rt.cfg.Global.CacheMode == config.CacheModeBuildID {
		if buildID == "" {
			buildID = uuid.NewString()
		}
		if err := os.Setenv(rt.cfg.Global.BuildIDEnv, buildID); err != nil {
			return fmt.Errorf("导出 build id 失败: %w", err)
		}
	}

	p, err := pipeline.New(rt.cfg, rt.logger)
	if err != nil {
		return err
	}

	fields := logging.BaseFields("build_start", rt.configPath)
	fields["build_id"] = buildID
	fields["cache_mode"] = rt.cfg.Global.CacheMode
	fields["version"] = version.Full()
	rt.logger.WithFields(fields).Info("开始构建")

	report, warmErr := p.Warm(cmd.Context())
	stats := p.Stats()

	summary := logging.BaseFields("build_done", rt.configPath)
	summary["works"] = report.Works
	summary["images"] = report.Images
	summary["failures"] = report.Failures
	summary["decodes"] = stats.Images.Decodes
	summary["encodes"] = stats.Images.Encodes
	summary["cache_copies"] = stats.Images.CacheCopies
	summary["static_hits"] = stats.Images.StaticHits
	summary["collection_hits"] = stats.Cache.Hits
	summary["collection_misses"] = stats.Cache.Misses
	rt.logger.WithFields(summary).Info("构建完成")

	fmt.Fprintf(stdOut, "works=%d images=%d encodes=%d copies=%d failures=%d\n",
		report.Works, report.Images, stats.Images.Encodes, stats.Images.CacheCopies, report.Failures)
	return warmErr
}
