// Package outcomelog 提供按运行 ID 划分的请求结果日志（JSON Lines）。
// 所有虚拟用户并发写入同一个 Writer，由单个后台协程独占文件，避免交错写入。
// 写入失败只记录告警，不会影响压测本身。
package outcomelog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/types"
)

const (
	// DefaultDir 是默认的日志目录。
	DefaultDir = "logs"

	// defaultQueueSize 是写入队列的缓冲大小。
	defaultQueueSize = 4096
)

// record 是日志文件中的一行。
type record struct {
	Timestamp string  `json:"timestamp"`
	Status    int     `json:"status"`
	Latency   float64 `json:"latency"`
	Error     *string `json:"error"`
}

// Writer 是单写者的结果日志。
type Writer struct {
	path  string
	file  *os.File
	buf   *bufio.Writer
	queue chan types.RequestOutcome
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	written  atomic.Int64
	failures atomic.Int64
}

// Path 返回 dir 下 runID 对应的日志文件路径。
func Path(dir, runID string) string {
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, fmt.Sprintf("run_%s.jsonl", runID))
}

// Open 打开（必要时创建）runID 对应的日志文件并启动写入协程。
func Open(dir, runID string) (*Writer, error) {
	path := Path(dir, runID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开结果日志失败: %w", err)
	}

	w := &Writer{
		path:  path,
		file:  file,
		buf:   bufio.NewWriter(file),
		queue: make(chan types.RequestOutcome, defaultQueueSize),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Record 将结果放入写入队列。Close 之后的调用会被忽略。
func (w *Writer) Record(outcome types.RequestOutcome) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	w.queue <- outcome
}

// loop 独占文件，顺序写入队列中的结果。
func (w *Writer) loop() {
	defer close(w.done)

	for outcome := range w.queue {
		line, err := encode(outcome)
		if err == nil {
			line = append(line, '\n')
			_, err = w.buf.Write(line)
		}
		if err != nil {
			if w.failures.Add(1) == 1 {
				logger.Warn("写入结果日志失败", zap.String("path", w.path), zap.Error(err))
			}
			continue
		}
		w.written.Add(1)
	}
}

func encode(o types.RequestOutcome) ([]byte, error) {
	ts := o.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec := record{
		Timestamp: ts.Format(time.RFC3339Nano),
		Status:    o.StatusCode,
		Latency:   o.Latency,
	}
	if o.Error != "" {
		msg := o.Error
		rec.Error = &msg
	}
	return sonic.Marshal(rec)
}

// Close 停止接收新结果，等待队列写完并关闭文件。
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("刷新结果日志失败: %w", flushErr)
	}
	return closeErr
}

// Path 返回日志文件路径。
func (w *Writer) Path() string {
	return w.path
}

// Written 返回成功写入的行数。
func (w *Writer) Written() int64 {
	return w.written.Load()
}

// Failures 返回写入失败的次数。
func (w *Writer) Failures() int64 {
	return w.failures.Load()
}
