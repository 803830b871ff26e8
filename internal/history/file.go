package history

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/types"
)

// DefaultFilePath 默认历史文件
const DefaultFilePath = "data/results.jsonl"

// FileStore 以 JSON Lines 格式保存运行摘要，每行一条。
// 文件在第一次写入时创建。
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore 创建文件存储
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileStore{path: path}
}

// Path 返回历史文件路径
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Append(_ context.Context, summary types.RunSummary) error {
	line, err := sonic.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write history file: %w", err)
	}
	return f.Close()
}

func (s *FileStore) Last(ctx context.Context) (types.RunSummary, bool, error) {
	records, err := s.List(ctx)
	if err != nil || len(records) == 0 {
		return types.RunSummary{}, false, err
	}
	return records[len(records)-1], true, nil
}

// List 读取全部记录。无法解析的行（例如被截断的最后一行）会被跳过。
func (s *FileStore) List(_ context.Context) ([]types.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.RunSummary{}, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	records := []types.RunSummary{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec types.RunSummary
		if err := sonic.Unmarshal(line, &rec); err != nil {
			logger.Warn("skipping malformed history record",
				zap.String("path", s.path), zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	return records, nil
}

func (s *FileStore) Close() error {
	return nil
}
