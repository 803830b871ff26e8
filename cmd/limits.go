package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"yqhp/loadaudit/internal/limits"
)

var limitsStatus bool

// limitsCmd 是 limits 子命令
var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "估算本机可支撑的并发用户数",
	Long: `根据 CPU 核数、文件描述符限制和可用内存估算本机可支撑的最大并发用户数。
使用 --status 查看当前系统负载。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			v   any
			err error
		)
		if limitsStatus {
			v, err = limits.CurrentStatus()
		} else {
			v, err = limits.Current()
		}
		if err != nil {
			return fmt.Errorf("读取系统信息失败: %w", err)
		}

		data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(limitsCmd)

	limitsCmd.Flags().BoolVar(&limitsStatus, "status", false, "输出当前系统负载")
}
