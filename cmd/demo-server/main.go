package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/cloud-platform/demo-server/internal/demo-server/server"
	"github.com/cloud-platform/demo-server/shared/config"
	"github.com/cloud-platform/demo-server/shared/logger"
)

// runFunc 启动服务器，测试时可替换
type runFunc func(ctx context.Context, cfg *config.Config, out io.Writer) error

func main() {
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(os.Stdout, runServer)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer, run runFunc) *cobra.Command {
	var (
		configFile string
		root       string
	)

	cmd := &cobra.Command{
		Use:   "demo-server [port]",
		Short: "Serve the frontend demo pages with permissive CORS headers",
		Long: "Serves the files of the demo directory over HTTP and adds CORS and no-cache " +
			"headers to every response, so a local demo page can call a separately running backend API.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.LoadOptions{ConfigFile: configFile, Root: root}
			if len(args) == 1 {
				port, err := parsePort(args[0])
				if err != nil {
					return err
				}
				opts.Port = &port
			}

			cfg, err := config.Load(opts)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg, out)
		},
	}

	cmd.SetOut(out)
	cmd.Flags().StringVar(&configFile, "config", "", "配置文件路径 (默认读取当前目录下的 demo-server.yaml)")
	cmd.Flags().StringVar(&root, "root", "", "静态文件根目录 (默认: 内置的演示页面)")

	return cmd
}

// parsePort 解析端口参数，只做整数解析，范围由配置验证负责
func parsePort(arg string) (int, error) {
	port, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("无效的端口参数 %q: %w", arg, err)
	}
	return port, nil
}

func runServer(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log, err := logger.NewLogger(cfg.Log.ToLoggerConfig())
	if err != nil {
		return fmt.Errorf("创建日志失败: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	assets, err := server.ResolveAssets(cfg.Server.Root)
	if err != nil {
		return err
	}

	// 错误由 main 统一输出
	return server.New(cfg.Server, assets, log, out).Run(ctx)
}
