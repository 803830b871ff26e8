package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"yqhp/loadaudit/internal/config"
	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/types"
)

// runSummaryRecord 运行摘要表
type runSummaryRecord struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	RunID         string    `gorm:"column:run_id;size:32;index"`
	URL           string    `gorm:"column:url;size:2048"`
	Users         int       `gorm:"column:users"`
	Duration      int       `gorm:"column:duration"`
	TotalRequests int       `gorm:"column:total_requests"`
	AvgLatency    float64   `gorm:"column:avg_latency"`
	MaxLatency    float64   `gorm:"column:max_latency"`
	P95Latency    float64   `gorm:"column:p95_latency"`
	P99Latency    float64   `gorm:"column:p99_latency"`
	LatencyStddev float64   `gorm:"column:latency_stddev"`
	ErrorRate     float64   `gorm:"column:error_rate"`
	Throughput    float64   `gorm:"column:throughput"`
	HealthScore   int       `gorm:"column:health_score"`
	Diagnosis     string    `gorm:"column:diagnosis;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (runSummaryRecord) TableName() string {
	return "run_summaries"
}

// diagnosisSep 诊断结论之间的分隔符，结论本身不含换行
const diagnosisSep = "\n"

func toRecord(s types.RunSummary) runSummaryRecord {
	return runSummaryRecord{
		RunID:         s.RunID,
		URL:           s.URL,
		Users:         s.Users,
		Duration:      s.Duration,
		TotalRequests: s.TotalRequests,
		AvgLatency:    s.AvgLatency,
		MaxLatency:    s.MaxLatency,
		P95Latency:    s.P95Latency,
		P99Latency:    s.P99Latency,
		LatencyStddev: s.StdDevLatency,
		ErrorRate:     s.ErrorRate,
		Throughput:    s.Throughput,
		HealthScore:   s.HealthScore,
		Diagnosis:     strings.Join(s.Diagnosis, diagnosisSep),
		CreatedAt:     s.CreatedAt,
	}
}

func (r runSummaryRecord) toSummary() types.RunSummary {
	var diagnosis []string
	if r.Diagnosis != "" {
		diagnosis = strings.Split(r.Diagnosis, diagnosisSep)
	}
	return types.RunSummary{
		RunID:     r.RunID,
		URL:       r.URL,
		Users:     r.Users,
		Duration:  r.Duration,
		CreatedAt: r.CreatedAt,
		RunMetrics: types.RunMetrics{
			TotalRequests: r.TotalRequests,
			AvgLatency:    r.AvgLatency,
			MaxLatency:    r.MaxLatency,
			P95Latency:    r.P95Latency,
			P99Latency:    r.P99Latency,
			StdDevLatency: r.LatencyStddev,
			ErrorRate:     r.ErrorRate,
			Throughput:    r.Throughput,
			HealthScore:   r.HealthScore,
			Diagnosis:     diagnosis,
		},
	}
}

// SQLStore 基于 GORM 的历史存储，支持 MySQL 与 PostgreSQL。
// 自增主键决定记录顺序。
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore 使用已有连接创建存储，不做迁移
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenSQL 按驱动建立连接、设置连接池并迁移表结构
func OpenSQL(driver string, cfg *config.DatabaseConfig) (*SQLStore, error) {
	dialector, err := dialectorFor(driver, cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.AutoMigrate(&runSummaryRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate run_summaries: %w", err)
	}
	return NewSQLStore(db), nil
}

func dialectorFor(driver string, cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(MySQLDSN(cfg)), nil
	case "postgres":
		return postgres.Open(PostgresDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// MySQLDSN 构建 MySQL 连接串
func MySQLDSN(cfg *config.DatabaseConfig) string {
	charset := cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, charset)
}

// PostgresDSN 构建 PostgreSQL 连接串
func PostgresDSN(cfg *config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, sslMode)
}

func (s *SQLStore) Append(ctx context.Context, summary types.RunSummary) error {
	rec := toRecord(summary)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

func (s *SQLStore) Last(ctx context.Context) (types.RunSummary, bool, error) {
	var rec runSummaryRecord
	err := s.db.WithContext(ctx).Last(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.RunSummary{}, false, nil
	}
	if err != nil {
		return types.RunSummary{}, false, fmt.Errorf("query last run summary: %w", err)
	}
	return rec.toSummary(), true, nil
}

func (s *SQLStore) List(ctx context.Context) ([]types.RunSummary, error) {
	var recs []runSummaryRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}

	out := make([]types.RunSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toSummary())
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
