package history

import (
	"encoding/csv"
	"io"
	"strconv"

	"yqhp/loadaudit/pkg/types"
)

// CSVHeader 导出文件的列
var CSVHeader = []string{
	"run_id", "url", "users", "duration",
	"avg_latency", "max_latency", "p95_latency", "p99_latency", "latency_stddev",
	"error_rate", "throughput", "total_requests", "health_score",
}

// ExportCSV 按插入顺序将运行摘要写为 CSV，首行为表头
func ExportCSV(w io.Writer, summaries []types.RunSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := cw.Write(CSVRow(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVRow 返回一条运行摘要对应的 CSV 行，列顺序与 CSVHeader 一致
func CSVRow(s types.RunSummary) []string {
	return []string{
		s.RunID,
		s.URL,
		strconv.Itoa(s.Users),
		strconv.Itoa(s.Duration),
		formatFloat(s.AvgLatency),
		formatFloat(s.MaxLatency),
		formatFloat(s.P95Latency),
		formatFloat(s.P99Latency),
		formatFloat(s.StdDevLatency),
		formatFloat(s.ErrorRate),
		formatFloat(s.Throughput),
		strconv.Itoa(s.TotalRequests),
		strconv.Itoa(s.HealthScore),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
