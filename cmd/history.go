package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"yqhp/loadaudit/internal/history"
	"yqhp/loadaudit/pkg/types"
)

var (
	historyJSON   bool
	historyOutput string
)

// historyCmd 是 history 子命令
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查看或导出运行历史",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "按时间顺序列出运行历史",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		summaries, err := loadHistory(cmd)
		if err != nil {
			return err
		}
		if historyJSON {
			data, err := sonic.ConfigStd.MarshalIndent(summaries, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		return printHistory(cmd.OutOrStdout(), summaries)
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "把运行历史导出为 CSV",
	Example: `  loadaudit history export > results.csv
  loadaudit history export -o load_test_results.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		summaries, err := loadHistory(cmd)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			return fmt.Errorf("没有可导出的运行记录")
		}

		if historyOutput == "" {
			return history.ExportCSV(cmd.OutOrStdout(), summaries)
		}

		f, err := os.Create(historyOutput)
		if err != nil {
			return fmt.Errorf("创建导出文件失败: %w", err)
		}
		if err := history.ExportCSV(f, summaries); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "已导出 %d 条记录到 %s\n", len(summaries), historyOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyExportCmd)

	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "以 JSON 输出")
	historyExportCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "导出文件路径 (默认输出到标准输出)")
}

func loadHistory(cmd *cobra.Command) ([]types.RunSummary, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cmd.Context(), &cfg.History)
	if err != nil {
		return nil, fmt.Errorf("打开运行历史失败: %w", err)
	}
	defer store.Close()

	return store.List(cmd.Context())
}

func printHistory(w io.Writer, summaries []types.RunSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "暂无运行记录")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tURL\tUSERS\tREQUESTS\tP95 (s)\tERROR RATE\tTHROUGHPUT\tHEALTH")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.4f\t%.2f%%\t%.2f\t%d\n",
			s.RunID,
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			s.URL,
			s.Users,
			s.TotalRequests,
			s.P95Latency,
			s.ErrorRate*100,
			s.Throughput,
			s.HealthScore,
		)
	}
	return tw.Flush()
}
