package outcomelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/loadaudit/pkg/types"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), "line must be valid JSON: %s", sc.Text())
		lines = append(lines, m)
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("logs", "run_ab12cd34.jsonl"), Path("", "ab12cd34"))
	assert.Equal(t, filepath.Join("/tmp/x", "run_r1.jsonl"), Path("/tmp/x", "r1"))
}

func TestWriter_RecordFormat(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, "fmt")
	require.NoError(t, err)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w.Record(types.RequestOutcome{StatusCode: 200, Latency: 0.05, Timestamp: ts})
	w.Record(types.RequestOutcome{StatusCode: 500, Latency: 0.3, Error: types.ChaosFailure, Timestamp: ts})
	require.NoError(t, w.Close())

	lines := readLines(t, w.Path())
	require.Len(t, lines, 2)

	assert.Equal(t, "2026-01-02T03:04:05Z", lines[0]["timestamp"])
	assert.Equal(t, float64(200), lines[0]["status"])
	assert.Equal(t, 0.05, lines[0]["latency"])
	assert.Nil(t, lines[0]["error"])
	assert.Contains(t, lines[0], "error")

	assert.Equal(t, types.ChaosFailure, lines[1]["error"])
	assert.Equal(t, int64(2), w.Written())
	assert.Zero(t, w.Failures())
}

func TestWriter_ConcurrentWritersDoNotInterleave(t *testing.T) {
	w, err := Open(t.TempDir(), "concurrent")
	require.NoError(t, err)

	const writers, perWriter = 16, 250
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				w.Record(types.RequestOutcome{StatusCode: 200 + i, Latency: float64(j) / 1000, Error: "e"})
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	lines := readLines(t, w.Path())
	assert.Len(t, lines, writers*perWriter)
}

func TestWriter_RecordAfterCloseIsIgnored(t *testing.T) {
	w, err := Open(t.TempDir(), "closed")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.NotPanics(t, func() {
		w.Record(types.RequestOutcome{StatusCode: 200})
	})
	assert.NoError(t, w.Close())
}

func TestWriter_AppendsToExistingLog(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		w, err := Open(dir, "same")
		require.NoError(t, err)
		w.Record(types.RequestOutcome{StatusCode: 204})
		require.NoError(t, w.Close())
	}
	assert.Len(t, readLines(t, Path(dir, "same")), 2)
}

func TestOpen_InvalidDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Open(file, "r")
	assert.Error(t, err)
}
