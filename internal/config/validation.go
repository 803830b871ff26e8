package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration values.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns ValidationErrors, or nil.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateServerConfig(&cfg.Server)
	v.validateEngineConfig(&cfg.Engine)
	v.validateHistoryConfig(&cfg.History)
	v.validateReportersConfig(&cfg.Reporters)
	v.validateLoggingConfig(&cfg.Logging)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServerConfig(cfg *ServerConfig) {
	if cfg.Address == "" {
		v.addError("server.address", "address is required")
	} else if !isValidAddress(cfg.Address) {
		v.addError("server.address", "invalid address format, expected host:port or :port")
	}

	if cfg.ReadTimeout < 0 {
		v.addError("server.read_timeout", "read timeout must be non-negative")
	}
	if cfg.WriteTimeout < 0 {
		v.addError("server.write_timeout", "write timeout must be non-negative")
	}
	if cfg.EnableMetrics && !strings.HasPrefix(cfg.MetricsPath, "/") {
		v.addError("server.metrics_path", "metrics path must start with '/'")
	}
}

func (v *Validator) validateEngineConfig(cfg *EngineConfig) {
	if cfg.RequestTimeout <= 0 {
		v.addError("engine.request_timeout", "request timeout must be positive")
	}
	if cfg.MaxConnsPerHost < 0 {
		v.addError("engine.max_conns_per_host", "max conns per host must be non-negative")
	}
	if cfg.ChaosProbability < 0 || cfg.ChaosProbability > 1 {
		v.addError("engine.chaos_probability", "chaos probability must be within [0, 1]")
	}
	if cfg.ChaosMinDelay < 0 {
		v.addError("engine.chaos_min_delay", "chaos min delay must be non-negative")
	}
	if cfg.ChaosMaxDelay < cfg.ChaosMinDelay {
		v.addError("engine.chaos_max_delay", "chaos max delay must not be less than chaos min delay")
	}
}

func (v *Validator) validateHistoryConfig(cfg *HistoryConfig) {
	switch strings.ToLower(cfg.Driver) {
	case "file":
		if cfg.FilePath == "" {
			v.addError("history.file_path", "file path is required for the file driver")
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			v.addError("history.redis.addr", "address is required for the redis driver")
		}
		if cfg.Redis.Key == "" {
			v.addError("history.redis.key", "key is required for the redis driver")
		}
	case "mysql", "postgres":
		if cfg.Database.Host == "" {
			v.addError("history.database.host", "host is required for SQL drivers")
		}
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			v.addError("history.database.port", "port must be within 1-65535")
		}
		if cfg.Database.Database == "" {
			v.addError("history.database.database", "database name is required for SQL drivers")
		}
	case "memory":
	case "":
		v.addError("history.driver", "history driver is required")
	default:
		v.addError("history.driver", fmt.Sprintf("invalid history driver '%s', must be one of: file, redis, mysql, postgres, memory", cfg.Driver))
	}
}

func (v *Validator) validateReportersConfig(cfg *ReportersConfig) {
	if cfg.JSON.Enabled && cfg.JSON.Dir == "" {
		v.addError("reporters.json.dir", "output directory is required")
	}
	if cfg.CSV.Enabled && cfg.CSV.Path == "" {
		v.addError("reporters.csv.path", "output path is required")
	}
	if cfg.Prometheus.Enabled && !isValidURL(cfg.Prometheus.PushURL) {
		v.addError("reporters.prometheus.push_url", "push url must be an absolute http(s) URL")
	}
	if cfg.Prometheus.Enabled && cfg.Prometheus.Job == "" {
		v.addError("reporters.prometheus.job", "job name is required")
	}
	if cfg.Webhook.Enabled && !isValidURL(cfg.Webhook.URL) {
		v.addError("reporters.webhook.url", "webhook url must be an absolute http(s) URL")
	}
	if cfg.Webhook.Timeout < 0 || (cfg.Webhook.Timeout > 0 && cfg.Webhook.Timeout < 100*time.Millisecond) {
		v.addError("reporters.webhook.timeout", "webhook timeout should be at least 100ms")
	}
	if cfg.InfluxDB.Enabled && !isValidURL(cfg.InfluxDB.URL) {
		v.addError("reporters.influxdb.url", "influxdb url must be an absolute http(s) URL")
	}
	if cfg.InfluxDB.Enabled && cfg.InfluxDB.Bucket == "" {
		v.addError("reporters.influxdb.bucket", "bucket is required")
	}
}

func (v *Validator) validateLoggingConfig(cfg *LoggingConfig) {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Level == "" {
		v.addError("logging.level", "log level is required")
	} else if !validLevels[strings.ToLower(cfg.Level)] {
		v.addError("logging.level", fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error", cfg.Level))
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if cfg.Format != "" && !validFormats[strings.ToLower(cfg.Format)] {
		v.addError("logging.format", fmt.Sprintf("invalid log format '%s', must be one of: json, console", cfg.Format))
	}

	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
	case "file", "both":
		if cfg.FilePath == "" {
			v.addError("logging.file_path", "file path is required when output is file or both")
		}
	default:
		v.addError("logging.output", fmt.Sprintf("invalid log output '%s', must be one of: stdout, file, both", cfg.Output))
	}
}

// isValidAddress checks if the address is a valid host:port or :port.
func isValidAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return false
	}
	if host == "" || net.ParseIP(host) != nil {
		return true
	}
	return isValidHostname(host)
}

func isValidHostname(hostname string) bool {
	if len(hostname) == 0 || len(hostname) > 253 {
		return false
	}
	for _, label := range strings.Split(hostname, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if !isAlphanumeric(label[0]) || !isAlphanumeric(label[len(label)-1]) {
			return false
		}
		for _, c := range label {
			if !isAlphanumeric(byte(c)) && c != '-' {
				return false
			}
		}
	}
	return true
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}

// LoadAndValidate loads configuration from a file and validates it.
func LoadAndValidate(path string, overrides map[string]string) (*Config, error) {
	cfg, err := NewLoader().WithConfigPath(path).WithCmdArgs(overrides).Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
