package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Monitoring.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("monitoring: %w", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if err := c.validateProfilingSecurity(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *ServerConfig) Validate() error {
	var errs []error

	if s.Host == "" {
		errs = append(errs, fmt.Errorf("host cannot be empty"))
	}
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", s.Port))
	}
	if s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.requests_per_second must be positive"))
		}
		if s.RateLimit.Burst < 1 {
			errs = append(errs, fmt.Errorf("rate_limit.burst must be at least 1"))
		}
	}

	return errors.Join(errs...)
}

func (m *MonitoringConfig) Validate() error {
	var errs []error

	if m.IntervalMS < 100 {
		errs = append(errs, fmt.Errorf("interval_ms must be at least 100, got %d", m.IntervalMS))
	}
	if m.CPUSettleMS < 0 {
		errs = append(errs, fmt.Errorf("cpu_settle_ms must be non-negative"))
	}
	// The settle pause runs inside the tick.
	if m.IntervalMS >= 100 && m.CPUSettleMS >= m.IntervalMS {
		errs = append(errs, fmt.Errorf("cpu_settle_ms (%d) must be shorter than interval_ms (%d)", m.CPUSettleMS, m.IntervalMS))
	}
	if m.GPUTimeoutMS < 1 {
		errs = append(errs, fmt.Errorf("gpu_timeout_ms must be at least 1"))
	}

	return errors.Join(errs...)
}

func (s *StorageConfig) Validate() error {
	var errs []error

	if s.Path == "" {
		errs = append(errs, fmt.Errorf("path cannot be empty"))
	}
	if s.RetentionDays < 1 {
		errs = append(errs, fmt.Errorf("retention_days must be at least 1"))
	}
	if s.CleanupIntervalSec < 1 {
		errs = append(errs, fmt.Errorf("cleanup_interval_sec must be at least 1"))
	}

	return errors.Join(errs...)
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", l.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[l.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", l.Format)
	}

	return nil
}

func (a *AuthConfig) Validate() error {
	if a.Enabled {
		if a.User == "" {
			return fmt.Errorf("user cannot be empty when auth is enabled")
		}
		if a.Password == "" {
			return fmt.Errorf("password cannot be empty when auth is enabled")
		}
	}
	return nil
}

// validateProfilingSecurity refuses to expose pprof without credentials.
func (c *Config) validateProfilingSecurity() error {
	if c.Server.Profiling.Enabled && !c.Auth.Enabled {
		return fmt.Errorf("server.profiling requires auth to be enabled")
	}
	return nil
}
