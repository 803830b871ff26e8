package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/loadaudit/internal/history"
	"yqhp/loadaudit/pkg/types"
)

func TestRootCommand(t *testing.T) {
	root := GetRootCmd()
	assert.Equal(t, "loadaudit", root.Use)

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "serve", "history", "limits"}, names)

	for _, flag := range []string{"config", "debug", "quiet", "set"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"Authorization: Bearer a:b", "X-Empty:", " X-Trace :1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Authorization": "Bearer a:b",
		"X-Empty":       "",
		"X-Trace":       "1",
	}, headers)

	headers, err = parseHeaders(nil)
	require.NoError(t, err)
	assert.Nil(t, headers)

	_, err = parseHeaders([]string{"no-colon"})
	assert.Error(t, err)
	_, err = parseHeaders([]string{": value"})
	assert.Error(t, err)
}

func TestParsePayload(t *testing.T) {
	payload, err := parsePayload(`{"name":"a","n":1}`)
	require.NoError(t, err)
	assert.Equal(t, "a", payload["name"])
	assert.EqualValues(t, 1, payload["n"])

	payload, err = parsePayload("  ")
	require.NoError(t, err)
	assert.Nil(t, payload)

	_, err = parsePayload(`[1,2]`)
	assert.Error(t, err)
	_, err = parsePayload(`{`)
	assert.Error(t, err)
}

func TestBuildRequest(t *testing.T) {
	runUsers, runDuration, runMethod, runChaos = 5, 3, "post", true
	runHeaders = []string{"X-A: 1"}
	runPayload = `{"k":"v"}`
	t.Cleanup(func() {
		runUsers, runDuration, runMethod, runChaos = 10, 10, types.DefaultMethod, false
		runHeaders, runPayload = nil, ""
	})

	req, err := buildRequest("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, types.LoadTestRequest{
		TargetURL: "http://localhost:8080",
		NumUsers:  5,
		Duration:  3,
		Method:    "post",
		Headers:   map[string]string{"X-A": "1"},
		Payload:   map[string]any{"k": "v"},
		ChaosMode: true,
	}, req)
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, nil))
	assert.Contains(t, buf.String(), "暂无运行记录")

	buf.Reset()
	require.NoError(t, printHistory(&buf, []types.RunSummary{{
		RunID:     "abcd1234",
		URL:       "http://localhost:8080",
		Users:     10,
		CreatedAt: time.Now(),
		RunMetrics: types.RunMetrics{
			TotalRequests: 120,
			P95Latency:    0.25,
			ErrorRate:     0.05,
			Throughput:    42.5,
			HealthScore:   80,
		},
	}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "RUN ID")
	assert.Contains(t, lines[1], "abcd1234")
	assert.Contains(t, lines[1], "0.2500")
	assert.Contains(t, lines[1], "5.00%")
	assert.Contains(t, lines[1], "42.50")
}

func TestHistoryExportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	store := history.NewFileStore(path)
	for _, id := range []string{"run00001", "run00002"} {
		require.NoError(t, store.Append(context.Background(), types.RunSummary{
			RunID: id, URL: "http://localhost", Users: 1, Duration: 1, CreatedAt: time.Now().UTC(),
		}))
	}
	require.NoError(t, store.Close())

	var out bytes.Buffer
	root := GetRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"history", "export", "-q",
		"--set", "history.driver=file",
		"--set", "history.file_path=" + path,
	})
	t.Cleanup(func() {
		root.SetOut(nil)
		root.SetArgs(nil)
		quiet = false
	})

	require.NoError(t, root.Execute())

	rows, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, history.CSVHeader, rows[0])
	assert.Equal(t, "run00001", rows[1][0])
	assert.Equal(t, "run00002", rows[2][0])
}
