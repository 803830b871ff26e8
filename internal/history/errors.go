package history

import "errors"

var (
	// ErrUnsupportedDriver 不支持的历史存储驱动
	ErrUnsupportedDriver = errors.New("unsupported history driver")
	// ErrStoreClosed 存储已关闭
	ErrStoreClosed = errors.New("history store is closed")
	// ErrNilConfig 缺少历史存储配置
	ErrNilConfig = errors.New("history config is nil")
)
