package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/therealutkarshpriyadarshi/bbq/pkg/api/rest"
	"github.com/therealutkarshpriyadarshi/bbq/pkg/api/rest/middleware"
	"github.com/therealutkarshpriyadarshi/bbq/pkg/config"
	"github.com/therealutkarshpriyadarshi/bbq/pkg/observability"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		configFile  = flag.String("config", "", "path to configuration file (optional)")
		host        = flag.String("host", "", "server host (overrides config/env)")
		port        = flag.Int("port", 0, "server port (overrides config/env)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("BBQ Index Server v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	logger := observability.NewDefaultLogger()
	metrics := observability.NewMetrics()

	cfg := loadConfig(*configFile, logger)

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	printStartupInfo(cfg, logger)

	restConfig := rest.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSEnabled: true,
		CORSOrigins: []string{"*"},
		Auth: middleware.AuthConfig{
			Enabled: false,
		},
		RateLimit: middleware.RateLimitConfig{
			Enabled: false,
		},
		Index: cfg.Index,
	}

	server, err := rest.NewServer(restConfig, logger, metrics)
	if err != nil {
		logger.Fatalf("Failed to create REST server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("REST server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	logger.Info("Server is ready. Press Ctrl+C to stop.")
	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-errChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Errorf("Error stopping REST server: %v", err)
	}

	logger.Info("Server stopped. Goodbye!")
}

func loadConfig(configFile string, logger *observability.Logger) *config.Config {
	if configFile != "" {
		logger.Warn("config file support not yet implemented, using environment variables")
	}
	return config.LoadFromEnv()
}

func printStartupInfo(cfg *config.Config, logger *observability.Logger) {
	logger.Info("BBQ index server starting", map[string]interface{}{
		"address":     cfg.Server.Address(),
		"tls_enabled": cfg.Server.EnableTLS,
		"dimensions":  cfg.Index.Dimensions,
		"query_bits":  cfg.Index.QueryBits,
		"index_bits":  cfg.Index.IndexBits,
		"lambda":      cfg.Index.Lambda,
		"iters":       cfg.Index.Iters,
		"batch_size":  cfg.Index.BatchSize,
	})
}

func showUsage() {
	fmt.Println("BBQ Index Server - binary-quantized approximate nearest-neighbor search")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bbq-server [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help             Show this help message")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -config PATH      Accepted but ignored; configuration is read from environment variables")
	fmt.Println("  -host HOST        Server host (default: 0.0.0.0)")
	fmt.Println("  -port PORT        Server port (default: 8080)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  BBQ_HOST                Server host")
	fmt.Println("  BBQ_PORT                Server port")
	fmt.Println("  BBQ_MAX_CONNECTIONS     Max concurrent connections")
	fmt.Println("  BBQ_REQUEST_TIMEOUT     Request timeout (e.g., 30s)")
	fmt.Println("  BBQ_ENABLE_TLS          Enable TLS (true/false)")
	fmt.Println("  BBQ_TLS_CERT            TLS certificate file")
	fmt.Println("  BBQ_TLS_KEY             TLS key file")
	fmt.Println("  BBQ_DIMENSIONS          Vector dimensions")
	fmt.Println("  BBQ_QUERY_BITS          Query bit width (1 or 4)")
	fmt.Println("  BBQ_LAMBDA              Anisotropic loss weight")
	fmt.Println("  BBQ_ITERS                Coordinate descent rounds")
	fmt.Println("  BBQ_BATCH_SIZE           Scoring batch size")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Start with default configuration")
	fmt.Println("  bbq-server")
	fmt.Println()
	fmt.Println("  # Start on custom port")
	fmt.Println("  bbq-server -port 9090")
	fmt.Println()
	fmt.Println("  # Start with environment variables")
	fmt.Println("  BBQ_PORT=8080 BBQ_QUERY_BITS=1 bbq-server")
	fmt.Println()
}
