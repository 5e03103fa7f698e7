package config

import "time"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	PIDFile   string          `yaml:"pid_file"`
	Profiling ProfilingConfig `yaml:"profiling"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ProfilingConfig struct {
	Enabled bool `yaml:"enabled"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CORSConfig controls the Access-Control-* headers. An empty origin list
// allows any origin.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AuthConfig struct {
	Enabled  bool   `yaml:"enabled"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type MonitoringConfig struct {
	IntervalMS   int `yaml:"interval_ms"`
	CPUSettleMS  int `yaml:"cpu_settle_ms"`
	GPUTimeoutMS int `yaml:"gpu_timeout_ms"`
	// GPUEnabled turns off nvidia-smi probing entirely when false.
	GPUEnabled      bool   `yaml:"gpu_enabled"`
	KernelLogWindow string `yaml:"kernel_log_window"`
	HwmonRoot       string `yaml:"hwmon_root"`
	USBRoot         string `yaml:"usb_root"`
}

type StorageConfig struct {
	Path               string `yaml:"path"`
	RetentionDays      int    `yaml:"retention_days"`
	CleanupIntervalSec int    `yaml:"cleanup_interval_sec"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) MonitoringInterval() time.Duration {
	return time.Duration(c.Monitoring.IntervalMS) * time.Millisecond
}

func (c *Config) CPUSettle() time.Duration {
	return time.Duration(c.Monitoring.CPUSettleMS) * time.Millisecond
}

func (c *Config) GPUTimeout() time.Duration {
	return time.Duration(c.Monitoring.GPUTimeoutMS) * time.Millisecond
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.Storage.RetentionDays) * 24 * time.Hour
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Storage.CleanupIntervalSec) * time.Second
}
