// Package cmd 提供 loadaudit CLI 的命令实现
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yqhp/loadaudit/internal/config"
	"yqhp/loadaudit/pkg/logger"
)

const (
	// Version 是当前版本号
	Version = "0.1.0"
	// Banner 是启动时显示的 ASCII 艺术
	Banner = `
   _                    _    _             _ _ _
  | |    ___   __ _  __| |  / \  _   _  __| (_) |_
  | |   / _ \ / _' |/ _' | / _ \| | | |/ _' | | __|
  | |__| (_) | (_| | (_| |/ ___ \ |_| | (_| | | |_
  |_____\___/ \__,_|\__,_/_/   \_\__,_|\__,_|_|\__| %s
`
)

var (
	// 全局配置
	cfgFile   string
	debug     bool
	quiet     bool
	overrides map[string]string
)

// rootCmd 是根命令
var rootCmd = &cobra.Command{
	Use:   "loadaudit",
	Short: "HTTP 压测与性能审计工具",
	Long: `loadaudit 对单个 HTTP 接口施加并发负载，计算延迟、错误率、吞吐量和健康分，
给出诊断建议，并与上一次运行比较以发现性能回归。`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 执行根命令
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// 全局 flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "静默模式")
	rootCmd.PersistentFlags().StringToStringVar(&overrides, "set", nil, "覆盖配置项，格式: section.key=value (可多次指定)")

	// 禁用默认的 completion 命令
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// 自定义版本模板
	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig 按 默认值 < 配置文件 < 环境变量 < --set 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadAndValidate(cfgFile, overrides)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	if quiet {
		cfg.Reporters.Console.Enabled = false
		if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
			cfg.Logging.Level = "warn"
		}
	}

	logger.Init(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	})
	if debug {
		logger.EnableDebug()
	}

	return cfg, nil
}
