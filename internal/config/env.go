package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

const (
	EnvInterval = "HOSTWATCH_COLLECTION_INTERVAL_SECS"
	EnvDatabase = "HOSTWATCH_DATABASE"
	EnvHost     = "HOSTWATCH_HOST"
	EnvPort     = "HOSTWATCH_PORT"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content []byte) []byte {
	return envVarRegex.ReplaceAllFunc(content, func(match []byte) []byte {
		varName := string(envVarRegex.FindSubmatch(match)[1])
		if value, exists := os.LookupEnv(varName); exists {
			return []byte(value)
		}
		return match
	})
}

// ApplyEnv overrides file values with HOSTWATCH_* variables that are set
// and non-empty.
func (c *Config) ApplyEnv() error {
	var errs []error

	if v := os.Getenv(EnvInterval); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || secs <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid interval %q", EnvInterval, v))
		} else {
			c.Monitoring.IntervalMS = int(secs * 1000)
		}
	}

	if v := os.Getenv(EnvDatabase); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid port %q", EnvPort, v))
		} else {
			c.Server.Port = port
		}
	}

	return errors.Join(errs...)
}
