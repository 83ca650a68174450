package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/partons-hub/partons/internal/config"
	_ "github.com/partons-hub/partons/internal/engine/native"
	_ "github.com/partons-hub/partons/internal/engine/noop"
	"github.com/partons-hub/partons/internal/logging"
	"github.com/partons-hub/partons/internal/server"
)

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run 构建命令树并执行，返回退出码，方便测试。
func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdOut)
	root.SetErr(stdErr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stdErr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// rootOptions 汇总全局标志。
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "partons",
		Short:         "Fetch, cache and convert parton distribution sets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"配置文件路径（默认自动探测，可被 "+config.EnvConfig+" 覆盖）")

	root.AddCommand(
		newConfigsCommand(opts),
		newIndexCommand(opts),
		newInfoCommand(opts),
		newFetchCommand(opts),
		newCacheCommand(opts),
		newXfxCommand(opts),
		newServeCommand(opts),
		newVersionCommand(),
	)
	return root
}

// session 是命令执行所需的已加载依赖。
type session struct {
	cfg      *config.Config
	logger   *logrus.Logger
	registry *server.SourceRegistry
}

// loadSession 遵循“配置 → 日志 → SourceRegistry”顺序初始化，
// 保证同一进程内所有命令共享统一的缓存与下载客户端。
func loadSession(opts *rootOptions, action string) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	registry, err := server.NewSourceRegistry(cfg, server.NewUpstreamClient(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("构建数据源失败: %w", err)
	}

	fields := logging.BaseFields(action, cfg.Path)
	fields["sources"] = len(cfg.Sources)
	fields["data_path"] = cfg.Global.DataPath
	logger.WithFields(fields).Debug("配置加载完成")

	return &session{cfg: cfg, logger: logger, registry: registry}, nil
}

func (rt *session) source(name string) (*server.SourceRoute, error) {
	route, ok := rt.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("未知数据源 %q（可用: %v）", name, config.SourceNames(rt.cfg.Sources))
	}
	return route, nil
}
