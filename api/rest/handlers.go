package rest

import (
	"bytes"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"yqhp/loadaudit/internal/history"
	"yqhp/loadaudit/internal/loadtest"
	applogger "yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/runner"
	"yqhp/loadaudit/pkg/types"
)

// ExportFilename CSV 导出的下载文件名
const ExportFilename = "load_test_results.csv"

// root handles GET /
func (s *Server) root(c *fiber.Ctx) error {
	return c.JSON(MessageResponse{Message: "LoadAudit is live."})
}

// healthCheck handles GET /health
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// startRun handles POST /start and POST /api/v1/runs.
// 同步执行整次压测，完成后返回 RunReport。
func (s *Server) startRun(c *fiber.Ctx) error {
	var req types.LoadTestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
		})
	}

	report, err := s.runner.Run(c.UserContext(), req)
	if err != nil {
		switch {
		case loadtest.IsConfigError(err):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		case errors.Is(err, runner.ErrRunCancelled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
				Error:   "run_cancelled",
				Message: err.Error(),
			})
		default:
			applogger.Error("load test failed", zap.String("target", req.TargetURL), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error:   "run_failed",
				Message: err.Error(),
			})
		}
	}

	return c.JSON(report)
}

// listHistory handles GET /api/v1/history
func (s *Server) listHistory(c *fiber.Ctx) error {
	summaries, err := s.summaries(c)
	if err != nil {
		return err
	}
	return c.JSON(summaries)
}

// exportHistory handles GET /api/v1/history/export
func (s *Server) exportHistory(c *fiber.Ctx) error {
	summaries, err := s.summaries(c)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "No results found",
		})
	}

	var buf bytes.Buffer
	if err := history.ExportCSV(&buf, summaries); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Attachment(ExportFilename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// summaries 读取全部运行历史；未配置存储时返回空列表
func (s *Server) summaries(c *fiber.Ctx) ([]types.RunSummary, error) {
	store := s.runner.History()
	if store == nil {
		return []types.RunSummary{}, nil
	}

	summaries, err := store.List(c.UserContext())
	if err != nil {
		applogger.Error("failed to read run history", zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to read run history")
	}
	if summaries == nil {
		summaries = []types.RunSummary{}
	}
	return summaries, nil
}

// getSystemLimits handles GET /api/v1/system/limits
func (s *Server) getSystemLimits(c *fiber.Ctx) error {
	l, err := s.systemLimits()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(l)
}

// getSystemStatus handles GET /api/v1/system/status
func (s *Server) getSystemStatus(c *fiber.Ctx) error {
	load, err := s.systemStatus()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(load)
}
