package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete LoadAudit configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	History   HistoryConfig   `yaml:"history"`
	Reporters ReportersConfig `yaml:"reporters"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds REST server configuration.
type ServerConfig struct {
	Address       string        `yaml:"address" env:"LA_SERVER_ADDRESS"`
	ReadTimeout   time.Duration `yaml:"read_timeout" env:"LA_SERVER_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" env:"LA_SERVER_WRITE_TIMEOUT"`
	EnableCORS    bool          `yaml:"enable_cors" env:"LA_SERVER_ENABLE_CORS"`
	EnableMetrics bool          `yaml:"enable_metrics" env:"LA_SERVER_ENABLE_METRICS"`
	MetricsPath   string        `yaml:"metrics_path" env:"LA_SERVER_METRICS_PATH"`
}

// EngineConfig holds load generation settings.
type EngineConfig struct {
	RequestTimeout     time.Duration `yaml:"request_timeout" env:"LA_ENGINE_REQUEST_TIMEOUT"`
	MaxConnsPerHost    int           `yaml:"max_conns_per_host" env:"LA_ENGINE_MAX_CONNS_PER_HOST"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" env:"LA_ENGINE_INSECURE_SKIP_VERIFY"`
	ChaosProbability   float64       `yaml:"chaos_probability" env:"LA_ENGINE_CHAOS_PROBABILITY"`
	ChaosMinDelay      time.Duration `yaml:"chaos_min_delay" env:"LA_ENGINE_CHAOS_MIN_DELAY"`
	ChaosMaxDelay      time.Duration `yaml:"chaos_max_delay" env:"LA_ENGINE_CHAOS_MAX_DELAY"`
	Seed               uint64        `yaml:"seed" env:"LA_ENGINE_SEED"`
	OutcomeLogDir      string        `yaml:"outcome_log_dir" env:"LA_ENGINE_OUTCOME_LOG_DIR"`
}

// HistoryConfig selects and configures the run history store.
type HistoryConfig struct {
	Driver   string         `yaml:"driver" env:"LA_HISTORY_DRIVER"`
	FilePath string         `yaml:"file_path" env:"LA_HISTORY_FILE_PATH"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

// RedisConfig holds the redis history store connection.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"LA_REDIS_ADDR"`
	Password string `yaml:"password" env:"LA_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"LA_REDIS_DB"`
	Key      string `yaml:"key" env:"LA_REDIS_KEY"`
}

// DatabaseConfig holds the SQL history store connection.
// The dialect comes from HistoryConfig.Driver (mysql or postgres).
type DatabaseConfig struct {
	Host            string `yaml:"host" env:"LA_DB_HOST"`
	Port            int    `yaml:"port" env:"LA_DB_PORT"`
	Username        string `yaml:"username" env:"LA_DB_USERNAME"`
	Password        string `yaml:"password" env:"LA_DB_PASSWORD"`
	Database        string `yaml:"database" env:"LA_DB_DATABASE"`
	Charset         string `yaml:"charset" env:"LA_DB_CHARSET"`
	SSLMode         string `yaml:"ssl_mode" env:"LA_DB_SSL_MODE"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"LA_DB_MAX_IDLE_CONNS"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"LA_DB_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" env:"LA_DB_CONN_MAX_LIFETIME"` // seconds
}

// ReportersConfig enables and configures run reporters.
type ReportersConfig struct {
	Console    ConsoleReporterConfig    `yaml:"console"`
	JSON       JSONReporterConfig       `yaml:"json"`
	CSV        CSVReporterConfig        `yaml:"csv"`
	Prometheus PrometheusReporterConfig `yaml:"prometheus"`
	Webhook    WebhookReporterConfig    `yaml:"webhook"`
	InfluxDB   InfluxDBReporterConfig   `yaml:"influxdb"`
}

// ConsoleReporterConfig configures the console reporter.
type ConsoleReporterConfig struct {
	Enabled bool `yaml:"enabled" env:"LA_REPORTER_CONSOLE_ENABLED"`
}

// JSONReporterConfig configures the JSON file reporter.
type JSONReporterConfig struct {
	Enabled bool   `yaml:"enabled" env:"LA_REPORTER_JSON_ENABLED"`
	Dir     string `yaml:"dir" env:"LA_REPORTER_JSON_DIR"`
}

// CSVReporterConfig configures the CSV reporter, which appends one row per run.
type CSVReporterConfig struct {
	Enabled bool   `yaml:"enabled" env:"LA_REPORTER_CSV_ENABLED"`
	Path    string `yaml:"path" env:"LA_REPORTER_CSV_PATH"`
}

// PrometheusReporterConfig configures the push gateway reporter.
type PrometheusReporterConfig struct {
	Enabled bool   `yaml:"enabled" env:"LA_REPORTER_PROMETHEUS_ENABLED"`
	PushURL string `yaml:"push_url" env:"LA_REPORTER_PROMETHEUS_PUSH_URL"`
	Job     string `yaml:"job" env:"LA_REPORTER_PROMETHEUS_JOB"`
}

// WebhookReporterConfig configures the webhook reporter.
type WebhookReporterConfig struct {
	Enabled bool              `yaml:"enabled" env:"LA_REPORTER_WEBHOOK_ENABLED"`
	URL     string            `yaml:"url" env:"LA_REPORTER_WEBHOOK_URL"`
	Timeout time.Duration     `yaml:"timeout" env:"LA_REPORTER_WEBHOOK_TIMEOUT"`
	Headers map[string]string `yaml:"headers" env:"LA_REPORTER_WEBHOOK_HEADERS"`
}

// InfluxDBReporterConfig configures the InfluxDB v2 reporter.
type InfluxDBReporterConfig struct {
	Enabled      bool              `yaml:"enabled" env:"LA_REPORTER_INFLUXDB_ENABLED"`
	URL          string            `yaml:"url" env:"LA_REPORTER_INFLUXDB_URL"`
	Token        string            `yaml:"token" env:"LA_REPORTER_INFLUXDB_TOKEN"`
	Organization string            `yaml:"organization" env:"LA_REPORTER_INFLUXDB_ORG"`
	Bucket       string            `yaml:"bucket" env:"LA_REPORTER_INFLUXDB_BUCKET"`
	Timeout      time.Duration     `yaml:"timeout" env:"LA_REPORTER_INFLUXDB_TIMEOUT"`
	Tags         map[string]string `yaml:"tags" env:"LA_REPORTER_INFLUXDB_TAGS"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LA_LOG_LEVEL"`
	Format     string `yaml:"format" env:"LA_LOG_FORMAT"`
	Output     string `yaml:"output" env:"LA_LOG_OUTPUT"`
	FilePath   string `yaml:"file_path" env:"LA_LOG_FILE_PATH"`
	MaxSize    int    `yaml:"max_size" env:"LA_LOG_MAX_SIZE"`
	MaxBackups int    `yaml:"max_backups" env:"LA_LOG_MAX_BACKUPS"`
	MaxAge     int    `yaml:"max_age" env:"LA_LOG_MAX_AGE"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:       ":8000",
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  5 * time.Minute, // POST /start blocks for the whole run
			EnableCORS:    true,
			EnableMetrics: true,
			MetricsPath:   "/metrics",
		},
		Engine: EngineConfig{
			RequestTimeout:   10 * time.Second,
			MaxConnsPerHost:  1000,
			ChaosProbability: 0.10,
			ChaosMinDelay:    100 * time.Millisecond,
			ChaosMaxDelay:    500 * time.Millisecond,
			OutcomeLogDir:    "logs",
		},
		History: HistoryConfig{
			Driver:   "file",
			FilePath: "data/results.jsonl",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "loadaudit:runs",
			},
			Database: DatabaseConfig{
				Host:            "localhost",
				Port:            3306,
				Database:        "loadaudit",
				Charset:         "utf8mb4",
				SSLMode:         "disable",
				MaxIdleConns:    5,
				MaxOpenConns:    20,
				ConnMaxLifetime: 3600,
			},
		},
		Reporters: ReportersConfig{
			Console: ConsoleReporterConfig{Enabled: true},
			JSON:    JSONReporterConfig{Dir: "reports"},
			CSV:     CSVReporterConfig{Path: "data/results.csv"},
			Prometheus: PrometheusReporterConfig{
				PushURL: "http://localhost:9091",
				Job:     "loadaudit",
			},
			Webhook: WebhookReporterConfig{
				Timeout: 10 * time.Second,
				Headers: make(map[string]string),
			},
			InfluxDB: InfluxDBReporterConfig{
				URL:          "http://localhost:8086",
				Organization: "default",
				Bucket:       "loadaudit",
				Timeout:      5 * time.Second,
				Tags:         make(map[string]string),
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stdout",
			FilePath:   "logs/loadaudit.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
	cmdArgs    map[string]string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "LA_",
		cmdArgs:   make(map[string]string),
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithCmdArgs sets dot-notation overrides, e.g. "engine.request_timeout" -> "5s".
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// Load loads configuration with precedence
// defaults < YAML file < environment variables < command-line overrides.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("从文件加载配置失败: %w", err)
		}
	}

	if err := l.applyEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("应用环境变量覆盖失败: %w", err)
	}

	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return nil, fmt.Errorf("设置配置值 %s 失败: %w", key, err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

// applyEnvToStruct walks nested structs and applies every env-tagged field
// whose variable is set and carries the loader's prefix.
func (l *Loader) applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || !strings.HasPrefix(envTag, l.envPrefix) {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("从环境变量 %s 设置字段 %s 失败: %w", envTag, fieldType.Name, err)
		}
	}

	return nil
}

// setConfigValue sets a configuration value by its dot-notation yaml path.
func setConfigValue(cfg *Config, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		field, ok := fieldByYAMLName(v, part)
		if !ok {
			return fmt.Errorf("未知的配置路径: %s", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("期望 %s 是结构体，实际是 %s", part, field.Kind())
		}
		v = field
	}

	return nil
}

func fieldByYAMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if tag == name || strings.EqualFold(t.Field(i).Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("无法设置字段")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("无效的时间格式: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("无效的整数: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("无效的无符号整数: %w", err)
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("无效的浮点数: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("无效的布尔值: %w", err)
		}
		field.SetBool(b)

	case reflect.Map:
		// key=value,key=value
		if field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("不支持的 map 类型")
		}
		m := make(map[string]string)
		for _, pair := range strings.Split(value, ",") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(kv) == 2 {
				m[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
			}
		}
		field.Set(reflect.ValueOf(m))

	default:
		return fmt.Errorf("不支持的字段类型: %s", field.Kind())
	}

	return nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadFromFile loads configuration from a YAML file path.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}
