package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration for the router driver.
type CLIConfig struct {
	ConfigPath       string
	LogLevel         string
	LogFormat        string
	Debug            bool
	ShutdownTimeout  time.Duration
	HealthPort       int
	MetricsAddr      string
	Threads          int
	TimerGranularity time.Duration
	QuitWithoutRun   bool
	PrintFlatconfig  bool
	ShowVersion      bool
	ShowHelp         bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("SWROUTERD_CONFIG", ""),
		"Path to a flatconfig file (env: SWROUTERD_CONFIG)")
	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("SWROUTERD_CONFIG", ""),
		"Path to a flatconfig file (env: SWROUTERD_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SWROUTERD_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: SWROUTERD_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SWROUTERD_LOG_FORMAT", "json"),
		"Log format: json, text (env: SWROUTERD_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("SWROUTERD_DEBUG", false),
		"Enable debug logging (env: SWROUTERD_DEBUG)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("SWROUTERD_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: SWROUTERD_SHUTDOWN_TIMEOUT)")

	flag.IntVar(&cfg.HealthPort, "health-port",
		getEnvInt("SWROUTERD_HEALTH_PORT", 0),
		"health.Status HTTP port, 0 to disable (env: SWROUTERD_HEALTH_PORT)")

	flag.StringVar(&cfg.MetricsAddr, "metrics-addr",
		getEnv("SWROUTERD_METRICS_ADDR", ""),
		"Prometheus /metrics listen address, empty to disable (env: SWROUTERD_METRICS_ADDR)")

	flag.IntVar(&cfg.Threads, "threads",
		getEnvInt("SWROUTERD_THREADS", 1),
		"Reserved for future multi-threaded execution; a value other than 1 is accepted but only one thread ever runs (env: SWROUTERD_THREADS)")

	flag.DurationVar(&cfg.TimerGranularity, "timer-granularity",
		getEnvDuration("SWROUTERD_TIMER_GRANULARITY", time.Millisecond),
		"Timer wheel coalescing granularity (env: SWROUTERD_TIMER_GRANULARITY)")

	flag.BoolVar(&cfg.QuitWithoutRun, "quit", false,
		"Build, configure, initialize, and activate the router, then exit without running it")
	flag.BoolVar(&cfg.PrintFlatconfig, "print-flatconfig", false,
		"Print the router's canonical flatconfig after configuration and exit")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath == "" {
		return fmt.Errorf("a flatconfig path is required (-config or SWROUTERD_CONFIG)")
	}
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.HealthPort < 0 || cfg.HealthPort > 65535 {
		return fmt.Errorf("invalid health port: %d", cfg.HealthPort)
	}
	if cfg.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", cfg.Threads)
	}
	if cfg.TimerGranularity <= 0 {
		return fmt.Errorf("timer-granularity must be positive, got %s", cfg.TimerGranularity)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - modular software router driver

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run a router described in a flatconfig file
  %s --config=/etc/swrouterd/router.click

  # Check a config builds and resolves cleanly without running it
  %s --config=/etc/swrouterd/router.click --quit

  # Print the canonical flatconfig form of a config (round-trips through config.Parse)
  %s --config=/etc/swrouterd/router.click --print-flatconfig

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
