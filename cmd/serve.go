package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/loadaudit/api/rest"
	promreporter "yqhp/loadaudit/internal/reporter/prometheus"
	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/runner"
)

var serveAddr string

// serveCmd 是 serve 子命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 REST API 服务",
	Example: `  loadaudit serve --addr :8000
  loadaudit serve --config loadaudit.yaml`,
	Args: cobra.NoArgs,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "监听地址 (覆盖配置文件)")
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Address = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := runner.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close(context.Background())

	reg := prometheus.NewRegistry()
	if cfg.Server.EnableMetrics {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := promreporter.NewExporter(reg)
		if err != nil {
			return fmt.Errorf("注册指标失败: %w", err)
		}
		r.Reporters().AddReporter(exporter)
	}

	srv := rest.NewServer(r, &cfg.Server, reg)

	if !quiet {
		fmt.Printf(Banner, Version)
		fmt.Println()
	}
	logger.Info("REST server listening", zap.String("address", cfg.Server.Address))

	if err := srv.StartWithContext(ctx); err != nil {
		return err
	}
	logger.Info("REST server stopped")
	return nil
}
