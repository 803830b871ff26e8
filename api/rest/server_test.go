package rest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/loadaudit/internal/config"
	"yqhp/loadaudit/internal/history"
	"yqhp/loadaudit/internal/limits"
	"yqhp/loadaudit/internal/loadtest"
	"yqhp/loadaudit/pkg/runner"
	"yqhp/loadaudit/pkg/types"
)

// mockRunner implements Runner for testing.
type mockRunner struct {
	store   history.Store
	err     error
	lastReq types.LoadTestRequest
}

func (m *mockRunner) Run(ctx context.Context, req types.LoadTestRequest) (*types.RunReport, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	summary := types.NewRunSummary("abcd1234", &req, types.RunMetrics{
		TotalRequests: 10,
		AvgLatency:    0.1,
		Throughput:    100,
		HealthScore:   100,
		Diagnosis:     []string{"Error rate is within acceptable limits."},
	})
	if m.store != nil {
		_ = m.store.Append(ctx, summary)
	}
	return types.NewRunReport(summary, nil), nil
}

func (m *mockRunner) History() history.Store {
	return m.store
}

type brokenStore struct{ history.Store }

func (brokenStore) List(context.Context) ([]types.RunSummary, error) {
	return nil, errors.New("connection reset")
}

func newTestServer(r Runner) *Server {
	return NewServer(r, nil, prometheus.NewRegistry())
}

func doRequest(t *testing.T, s *Server, method, path, body string) (*httptestResponse, error) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &httptestResponse{Status: resp.StatusCode, Header: resp.Header.Get, Body: data}, nil
}

type httptestResponse struct {
	Status int
	Header func(string) string
	Body   []byte
}

func TestRoot(t *testing.T) {
	s := newTestServer(&mockRunner{})

	resp, err := doRequest(t, s, "GET", "/", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.Status)

	var result MessageResponse
	require.NoError(t, json.Unmarshal(resp.Body, &result))
	assert.Equal(t, "LoadAudit is live.", result.Message)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(&mockRunner{})

	for _, path := range []string{"/health", "/api/v1/health"} {
		resp, err := doRequest(t, s, "GET", path, "")
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.Status, path)

		var result HealthResponse
		require.NoError(t, json.Unmarshal(resp.Body, &result))
		assert.Equal(t, "healthy", result.Status)
	}
}

func TestStartRun(t *testing.T) {
	for _, path := range []string{"/start", "/api/v1/runs"} {
		t.Run(path, func(t *testing.T) {
			mock := &mockRunner{store: history.NewMemoryStore()}
			s := newTestServer(mock)

			body := `{"target_url":"http://example.com","num_users":3,"duration":2,"method":"post",
				"headers":{"X-Trace":"1"},"payload":{"k":"v"},"chaos_mode":true}`
			resp, err := doRequest(t, s, "POST", path, body)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.Status)

			assert.Equal(t, "http://example.com", mock.lastReq.TargetURL)
			assert.Equal(t, 3, mock.lastReq.NumUsers)
			assert.Equal(t, 2, mock.lastReq.Duration)
			assert.Equal(t, "post", mock.lastReq.Method)
			assert.Equal(t, "1", mock.lastReq.Headers["X-Trace"])
			assert.Equal(t, "v", mock.lastReq.Payload["k"])
			assert.True(t, mock.lastReq.ChaosMode)

			var result map[string]any
			require.NoError(t, json.Unmarshal(resp.Body, &result))
			assert.Equal(t, "abcd1234", result["run_id"])
			assert.Equal(t, float64(10), result["total_requests"])
			assert.Equal(t, float64(100), result["health_score"])
			assert.Equal(t, []any{}, result["regressions"])
			assert.NotContains(t, result, "Latencies")
		})
	}
}

func TestStartRun_InvalidBody(t *testing.T) {
	s := newTestServer(&mockRunner{})

	resp, err := doRequest(t, s, "POST", "/api/v1/runs", `{"num_users":`)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	var result ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body, &result))
	assert.Equal(t, "invalid_request", result.Error)
}

func TestStartRun_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", fmt.Errorf("%w: got 0", loadtest.ErrInvalidUsers), fiber.StatusBadRequest, "invalid_request"},
		{"bad target", loadtest.ErrInvalidTarget, fiber.StatusBadRequest, "invalid_request"},
		{"cancelled", fmt.Errorf("%w: %w", runner.ErrRunCancelled, context.Canceled), fiber.StatusServiceUnavailable, "run_cancelled"},
		{"other", errors.New("boom"), fiber.StatusInternalServerError, "run_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&mockRunner{err: tt.err})

			resp, err := doRequest(t, s, "POST", "/start", `{"target_url":"http://x","num_users":1,"duration":1}`)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)

			var result ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body, &result))
			assert.Equal(t, tt.code, result.Error)
			assert.Contains(t, result.Message, tt.err.Error())
		})
	}
}

func TestListHistory(t *testing.T) {
	mock := &mockRunner{store: history.NewMemoryStore()}
	s := newTestServer(mock)

	resp, err := doRequest(t, s, "GET", "/api/v1/history", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.JSONEq(t, `[]`, string(resp.Body))

	_, err = doRequest(t, s, "POST", "/start", `{"target_url":"http://a","num_users":1,"duration":1}`)
	require.NoError(t, err)
	_, err = doRequest(t, s, "POST", "/start", `{"target_url":"http://b","num_users":2,"duration":1}`)
	require.NoError(t, err)

	resp, err = doRequest(t, s, "GET", "/api/v1/history", "")
	require.NoError(t, err)

	var summaries []types.RunSummary
	require.NoError(t, json.Unmarshal(resp.Body, &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "http://a", summaries[0].URL)
	assert.Equal(t, "http://b", summaries[1].URL)
}

func TestListHistory_NoStore(t *testing.T) {
	s := newTestServer(&mockRunner{})

	resp, err := doRequest(t, s, "GET", "/api/v1/history", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.JSONEq(t, `[]`, string(resp.Body))
}

func TestListHistory_StoreError(t *testing.T) {
	s := newTestServer(&mockRunner{store: brokenStore{}})

	resp, err := doRequest(t, s, "GET", "/api/v1/history", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.Status)

	var result ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body, &result))
	assert.Equal(t, "error_500", result.Error)
}

func TestExportHistory(t *testing.T) {
	mock := &mockRunner{store: history.NewMemoryStore()}
	s := newTestServer(mock)

	resp, err := doRequest(t, s, "GET", "/api/v1/history/export", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	_, err = doRequest(t, s, "POST", "/start", `{"target_url":"http://a","num_users":4,"duration":5}`)
	require.NoError(t, err)

	resp, err = doRequest(t, s, "GET", "/api/v1/history/export", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Contains(t, resp.Header("Content-Disposition"), ExportFilename)
	assert.Contains(t, resp.Header("Content-Type"), "text/csv")

	rows, err := csv.NewReader(strings.NewReader(string(resp.Body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, history.CSVHeader, rows[0])
	assert.Equal(t, "abcd1234", rows[1][0])
	assert.Equal(t, "http://a", rows[1][1])
	assert.Equal(t, "4", rows[1][2])
}

func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(&mockRunner{})
	s.systemLimits = func() (*limits.Limits, error) {
		return limits.Analyze(limits.Snapshot{
			Platform: "linux", CPUs: 2, TotalMem: 8 << 30, AvailMem: 4 << 30, SoftFD: 1024, HardFD: 4096,
		}), nil
	}
	s.systemStatus = func() (*limits.Load, error) {
		return nil, errors.New("probe failed")
	}

	resp, err := doRequest(t, s, "GET", "/api/v1/system/limits", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.Status)

	var result limits.Limits
	require.NoError(t, json.Unmarshal(resp.Body, &result))
	assert.Equal(t, 2, result.SystemInfo.CPUCores)
	assert.Equal(t, 400, result.Capacity.MaxConcurrentUsers)
	assert.Equal(t, 200, result.Capacity.RecommendedMaxUsers)

	resp, err = doRequest(t, s, "GET", "/api/v1/system/status", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "loadaudit_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	s := NewServer(&mockRunner{}, nil, reg)

	resp, err := doRequest(t, s, "GET", "/metrics", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "loadaudit_test_total 3")
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.EnableMetrics = false
	s := NewServer(&mockRunner{}, &cfg, prometheus.NewRegistry())

	resp, err := doRequest(t, s, "GET", "/metrics", "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestCORS(t *testing.T) {
	s := newTestServer(&mockRunner{})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
