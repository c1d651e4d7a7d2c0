// Command vcamd is the broker daemon: it owns the preferences store and
// the wire server that every bridge process in every client connects
// to, relaying broadcast frames to listeners and serving the device
// catalogue's control-plane state.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/webcamoid/akvirtualcamera-go/pkg/broker"
	"github.com/webcamoid/akvirtualcamera-go/pkg/config"
	"github.com/webcamoid/akvirtualcamera-go/pkg/logging"
	"github.com/webcamoid/akvirtualcamera-go/pkg/middleware"
	"github.com/webcamoid/akvirtualcamera-go/pkg/preferences"
	"github.com/webcamoid/akvirtualcamera-go/pkg/wire"
)

var (
	configPath = flag.String("config", "", "Path to configuration file (optional)")
	logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error) - overrides config")
	port       = flag.Int("port", 0, "Service port - overrides config")
)

func main() {
	flag.Parse()

	if err := logging.InitLogger("info", false); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	logging.Logger.Info("starting akvcam broker",
		zap.String("component", "vcamd"),
		zap.String("config_path", *configPath),
	)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err), zap.String("config_path", *configPath))
	}

	config.ApplyEnvOverrides(cfg)

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *port > 0 {
		cfg.Service.Port = *port
	}

	if err := config.ValidateConfig(cfg); err != nil {
		logging.Logger.Fatal("invalid configuration", zap.Error(err))
	}

	if err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.Production); err != nil {
		logging.Logger.Error("failed to reconfigure logger", zap.Error(err))
	}

	prefs, err := preferences.Open(cfg.Service.PreferencesPath, logging.Logger)
	if err != nil {
		logging.Logger.Fatal("failed to open preferences store", zap.Error(err),
			zap.String("path", cfg.Service.PreferencesPath))
	}
	prefs.SetServicePort(cfg.Service.Port)
	prefs.SetServiceTimeout(cfg.Service.Timeout)

	server := wire.NewServer(cfg.Service.Port, logging.Logger)
	broker.New(logging.Logger).Attach(server)

	if cfg.Monitoring.Enabled {
		startMonitoring(cfg.Monitoring.PrometheusPort)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logging.Logger.Fatal("broker server exited with error", zap.Error(err))
		}
	case s := <-sig:
		logging.Logger.Info("received shutdown signal", zap.String("signal", s.String()))
		server.Stop()
		<-serverErr
	}

	logging.Logger.Info("akvcam broker stopped")
}

// loadConfig reads path as YAML when given, falling back to the
// compiled-in defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// startMonitoring serves Prometheus metrics and a liveness probe on
// their own HTTP server, independent of the wire protocol port.
func startMonitoring(prometheusPort int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", prometheusPort),
		Handler: middleware.HTTPRecovery(mux),
	}

	go func() {
		logging.Logger.Info("monitoring server listening", zap.Int("port", prometheusPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Error("monitoring server failed", zap.Error(err))
		}
	}()
}
