// Package main implements swrouterd, the driver that loads a flatconfig
// program, installs it as the active router on a master, and runs it to
// completion or until a shutdown signal arrives.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/clickgo/swrouter/config"
	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/elements"
	"github.com/clickgo/swrouter/master"
	"github.com/clickgo/swrouter/metric"
	"github.com/clickgo/swrouter/router"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "swrouterd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("swrouterd exited with an error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	text, err := os.ReadFile(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	elemDecls, connDecls, err := config.Parse(string(text))
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	r := router.New("main", classRegistry())
	if err := r.Build(elemDecls, connDecls); err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	var registry *metric.Registry
	if cliCfg.MetricsAddr != "" {
		registry = metric.NewRegistry()
	}
	m := master.New(master.Options{
		Threads:          cliCfg.Threads,
		TimerGranularity: cliCfg.TimerGranularity,
		Metrics:          registry,
	})

	if err := m.Install(r); err != nil {
		return fmt.Errorf("install router: %w", err)
	}

	if cliCfg.PrintFlatconfig {
		fmt.Print(r.Flatconfig())
		return nil
	}
	if cliCfg.QuitWithoutRun {
		slog.Info("router built, configured, initialized, and activated; exiting without running (-quit)")
		return nil
	}

	return runUntilShutdown(r, m, registry, cliCfg)
}

// classRegistry returns the built-in element classes a driver-loaded
// flatconfig program may reference.
func classRegistry() map[string]router.Factory {
	return map[string]router.Factory{
		"Source":            func() element.Element { return elements.NewSource() },
		"Discard":           func() element.Element { return elements.NewDiscard() },
		"PushSource":        func() element.Element { return elements.NewPushSource() },
		"PullSink":          func() element.Element { return elements.NewPullSink() },
		"Queue":             func() element.Element { return elements.NewQueue(0, elements.DropTail) },
		"Counter":           func() element.Element { return elements.NewCounter() },
		"Value":             func() element.Element { return elements.NewValue() },
		"RateLimitedSource": func() element.Element { return elements.NewRateLimitedSource(1, 1) },
	}
}

// initializeCLI parses flags, handles -version/-help, and sets up logging.
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}
	if cliCfg.ShowHelp {
		printHelp()
		return nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)
	slog.Info("starting swrouterd", "version", Version, "config_path", cliCfg.ConfigPath)

	return cliCfg, false, nil
}

func printHelp() { printDetailedHelp() }

// runUntilShutdown starts optional health/metrics HTTP servers, runs the
// master's threads, and blocks until SIGINT/SIGTERM before a graceful
// shutdown.
func runUntilShutdown(r *router.Router, m *master.Master, registry *metric.Registry, cliCfg *CLIConfig) error {
	var servers []*http.Server
	var metricsSrv *metric.Server

	if cliCfg.HealthPort != 0 {
		servers = append(servers, startHealthServer(r, cliCfg.HealthPort))
	}
	if registry != nil {
		metricsSrv = metric.NewServer(cliCfg.MetricsAddr, "/metrics", registry)
		if err := metricsSrv.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		slog.Info("metrics endpoint listening", "addr", cliCfg.MetricsAddr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m.Run(ctx)
	slog.Info("router running", "name", r.Name, "threads", cliCfg.Threads)

	<-ctx.Done()
	slog.Info("received shutdown signal")

	// A second SIGINT/SIGTERM during the graceful shutdown below exits at once.
	second := make(chan os.Signal, 1)
	signal.Notify(second, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-second
		slog.Error("second shutdown signal, exiting immediately")
		os.Exit(1)
	}()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
	defer closeCancel()
	if err := m.Close(closeCtx); err != nil {
		slog.Error("master did not shut down cleanly", "error", err)
	}

	r.Stop()
	r.Teardown()

	for _, s := range servers {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Stop(shutdownCtx)
		shutdownCancel()
	}

	slog.Info("swrouterd shutdown complete")
	return nil
}

// startHealthServer serves the router's aggregated health at /healthz,
// grounded on the package-documented healthHandler pattern.
func startHealthServer(r *router.Router, port int) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := r.Health()
		code := http.StatusOK
		if status.IsUnhealthy() {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server stopped", "error", err)
		}
	}()
	slog.Info("health endpoint listening", "addr", srv.Addr)
	return srv
}

