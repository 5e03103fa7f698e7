package config

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    5253,
			PIDFile: "/tmp/hostwatch.pid",
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 50,
				Burst:             100,
			},
			CORS: CORSConfig{
				Enabled: true,
			},
		},
		Auth: AuthConfig{
			Enabled:  false,
			User:     "",
			Password: "",
		},
		Monitoring: MonitoringConfig{
			IntervalMS:      2000,
			CPUSettleMS:     200,
			GPUTimeoutMS:    3000,
			GPUEnabled:      true,
			KernelLogWindow: "5 minutes ago",
			HwmonRoot:       "/sys/class/hwmon",
			USBRoot:         "/sys/bus/usb/devices",
		},
		Storage: StorageConfig{
			Path:               "./data/hostwatch.db",
			RetentionDays:      30,
			CleanupIntervalSec: 3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
