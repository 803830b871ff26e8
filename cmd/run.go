package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"yqhp/loadaudit/pkg/runner"
	"yqhp/loadaudit/pkg/types"
)

var (
	// run 命令的 flags
	runUsers      int
	runDuration   int
	runMethod     string
	runHeaders    []string
	runPayload    string
	runChaos      bool
	runJSONOutput string
)

// runCmd 是 run 子命令
var runCmd = &cobra.Command{
	Use:   "run <target-url>",
	Short: "对目标 URL 执行一次压测",
	Long: `对目标 URL 执行一次压测。

固定数量的虚拟用户在指定时长内循环发送请求，结束后输出指标、
健康分、诊断结果以及与上一次运行相比的回归告警。`,
	Example: `  # 10 个用户压测 30 秒
  loadaudit run -u 10 -d 30 http://localhost:8080/api

  # POST 请求，带请求头和 JSON 请求体
  loadaudit run -X POST -H "Authorization: Bearer xxx" --payload '{"name":"a"}' http://localhost:8080/items

  # 开启混沌模式
  loadaudit run --chaos http://localhost:8080/api`,
	Args: cobra.ExactArgs(1),
	RunE: runLoadTest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runUsers, "users", "u", 10, "虚拟用户数")
	runCmd.Flags().IntVarP(&runDuration, "duration", "d", 10, "测试持续时间 (秒)")
	runCmd.Flags().StringVarP(&runMethod, "method", "X", types.DefaultMethod, "HTTP 方法")
	runCmd.Flags().StringArrayVarP(&runHeaders, "header", "H", nil, "请求头，格式: 'Name: value' (可多次指定)")
	runCmd.Flags().StringVar(&runPayload, "payload", "", "JSON 请求体")
	runCmd.Flags().BoolVar(&runChaos, "chaos", false, "启用混沌模式 (随机注入失败)")
	runCmd.Flags().StringVar(&runJSONOutput, "out-json", "", "输出 JSON 报告到文件")
}

func runLoadTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := buildRequest(args[0])
	if err != nil {
		return err
	}

	// 处理关闭信号
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := runner.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close(context.Background())

	if !quiet {
		printRunInfo(req)
	}

	report, err := r.Run(ctx, req)
	if err != nil {
		if errors.Is(err, runner.ErrRunCancelled) {
			return fmt.Errorf("测试已中止: %w", err)
		}
		return fmt.Errorf("执行失败: %w", err)
	}

	if runJSONOutput != "" {
		data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("序列化报告失败: %w", err)
		}
		if err := os.WriteFile(runJSONOutput, data, 0o644); err != nil {
			return fmt.Errorf("写入 JSON 输出失败: %w", err)
		}
		if !quiet {
			fmt.Printf("\n结果已写入: %s\n", runJSONOutput)
		}
	}

	return nil
}

// buildRequest 由命令行参数构建压测请求
func buildRequest(target string) (types.LoadTestRequest, error) {
	headers, err := parseHeaders(runHeaders)
	if err != nil {
		return types.LoadTestRequest{}, err
	}
	payload, err := parsePayload(runPayload)
	if err != nil {
		return types.LoadTestRequest{}, err
	}

	return types.LoadTestRequest{
		TargetURL: target,
		NumUsers:  runUsers,
		Duration:  runDuration,
		Method:    runMethod,
		Headers:   headers,
		Payload:   payload,
		ChaosMode: runChaos,
	}, nil
}

// parseHeaders 解析 "Name: value" 形式的请求头
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("无效的请求头 %q，格式应为 'Name: value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// parsePayload 解析 JSON 对象形式的请求体
func parsePayload(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var payload map[string]any
	if err := sonic.UnmarshalString(raw, &payload); err != nil {
		return nil, fmt.Errorf("无效的 JSON 请求体: %w", err)
	}
	return payload, nil
}

func printRunInfo(req types.LoadTestRequest) {
	fmt.Printf(Banner, Version)
	fmt.Println()
	fmt.Printf("  目标: %s %s\n", strings.ToUpper(req.Method), req.TargetURL)
	fmt.Printf("  虚拟用户数: %d\n", req.NumUsers)
	fmt.Printf("  持续时间: %ds\n", req.Duration)
	if req.ChaosMode {
		fmt.Printf("  混沌模式: 开启\n")
	}
	fmt.Println()
	fmt.Println("执行中...")
	fmt.Println()
}
