package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/atelier-press/atelier/internal/config"
	"github.com/atelier-press/atelier/internal/logging"
)

const (
	// configEnv 可覆盖默认配置路径，--config 优先级更高。
	configEnv         = "ATELIER_CONFIG"
	defaultConfigPath = "atelier.toml"
)

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run 执行 CLI 并返回退出码，方便测试。
func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdOut)
	root.SetErr(stdErr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stdErr, err.Error())
		return 1
	}
	return 0
}

// cliOptions 汇总全局标志解析后的结果。
type cliOptions struct {
	configFlag string
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "atelier",
		Short:         "content-addressed content and image pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFlag, "config", "", "配置文件路径（默认 ./atelier.toml，可被 ATELIER_CONFIG 覆盖）")

	root.AddCommand(
		newBuildCommand(opts),
		newServeCommand(opts),
		newCheckConfigCommand(opts),
		newImagesCommand(opts),
		newVersionCommand(),
	)
	return root
}

// resolveConfigPath 计算配置路径：--config > ATELIER_CONFIG > ./atelier.toml。
// 显式指定的文件必须存在；默认路径不存在时返回空字符串，仅使用默认值与环境变量。
func resolveConfigPath(flagValue string) (string, error) {
	path := os.Getenv(configEnv)
	if flagValue != "" {
		path = flagValue
	}
	if path != "" {
		return path, nil
	}
	if _, err := os.Stat(defaultConfigPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return defaultConfigPath, nil
}

// runtime 是各子命令共享的配置与日志实例。
type runtime struct {
	configPath string
	cfg        *config.Config
	logger     *logrus.Logger
}

func loadRuntime(opts *cliOptions) (*runtime, error) {
	path, err := resolveConfigPath(opts.configFlag)
	if err != nil {
		return nil, fmt.Errorf("定位配置失败: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return &runtime{configPath: path, cfg: cfg, logger: logger}, nil
}

func newCheckConfigCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "仅校验配置后退出",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			fields := logging.BaseFields("check_config", rt.configPath)
			fields["cache_mode"] = rt.cfg.Global.CacheMode
			fields["formats"] = rt.cfg.Images.Formats
			fields["widths"] = []int(rt.cfg.Images.Widths)
			fields["result"] = "ok"
			rt.logger.WithFields(fields).Info("配置校验通过")
			return nil
		},
	}
}
