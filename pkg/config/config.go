package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/therealutkarshpriyadarshi/bbq/pkg/bbq"
)

// Config holds all server configuration.
type Config struct {
	Server ServerConfig
	Index  IndexConfig
}

// ServerConfig holds REST server configuration.
type ServerConfig struct {
	Host            string        // Server host (default: "0.0.0.0")
	Port            int           // Server port (default: 8080)
	MaxConnections  int           // Max concurrent connections
	RequestTimeout  time.Duration // Request timeout
	ShutdownTimeout time.Duration // Graceful shutdown timeout
	EnableTLS       bool          // Enable TLS
	CertFile        string        // TLS certificate file
	KeyFile         string        // TLS key file
}

// IndexConfig holds the quantized index's dimension and quantizer tuning.
// It mirrors bbq.Config plus the fixed vector dimension the server expects
// incoming vectors to have.
type IndexConfig struct {
	Dimensions int     // Vector dimensions (default: 768)
	QueryBits  int     // 1 or 4 (default: 4)
	IndexBits  int     // fixed at 1 for the search path
	Lambda     float32 // anisotropic loss weight (default: 0.1)
	Iters      int     // coordinate descent rounds (default: 5)
	BatchSize  int     // scoring batch size (default: 1024)
}

// BBQConfig converts IndexConfig to the bbq.Config the index builder and
// search driver expect.
func (c IndexConfig) BBQConfig() bbq.Config {
	return bbq.Config{
		QueryBits: c.QueryBits,
		IndexBits: c.IndexBits,
		Lambda:    c.Lambda,
		Iters:     c.Iters,
		BatchSize: c.BatchSize,
	}
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxConnections:  1000,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			EnableTLS:       false,
		},
		Index: IndexConfig{
			Dimensions: 768,
			QueryBits:  4,
			IndexBits:  1,
			Lambda:     0.1,
			Iters:      5,
			BatchSize:  1024,
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	cfg := Default()

	if host := os.Getenv("BBQ_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("BBQ_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if maxConn := os.Getenv("BBQ_MAX_CONNECTIONS"); maxConn != "" {
		if mc, err := strconv.Atoi(maxConn); err == nil {
			cfg.Server.MaxConnections = mc
		}
	}
	if timeout := os.Getenv("BBQ_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			cfg.Server.RequestTimeout = t
		}
	}
	if enableTLS := os.Getenv("BBQ_ENABLE_TLS"); enableTLS == "true" {
		cfg.Server.EnableTLS = true
		cfg.Server.CertFile = os.Getenv("BBQ_TLS_CERT")
		cfg.Server.KeyFile = os.Getenv("BBQ_TLS_KEY")
	}

	if dims := os.Getenv("BBQ_DIMENSIONS"); dims != "" {
		if d, err := strconv.Atoi(dims); err == nil {
			cfg.Index.Dimensions = d
		}
	}
	if qb := os.Getenv("BBQ_QUERY_BITS"); qb != "" {
		if v, err := strconv.Atoi(qb); err == nil {
			cfg.Index.QueryBits = v
		}
	}
	if lambda := os.Getenv("BBQ_LAMBDA"); lambda != "" {
		if v, err := strconv.ParseFloat(lambda, 32); err == nil {
			cfg.Index.Lambda = float32(v)
		}
	}
	if iters := os.Getenv("BBQ_ITERS"); iters != "" {
		if v, err := strconv.Atoi(iters); err == nil {
			cfg.Index.Iters = v
		}
	}
	if batch := os.Getenv("BBQ_BATCH_SIZE"); batch != "" {
		if v, err := strconv.Atoi(batch); err == nil {
			cfg.Index.BatchSize = v
		}
	}

	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("invalid max connections: %d (must be > 0)", c.Server.MaxConnections)
	}
	if c.Server.EnableTLS {
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
	}

	if c.Index.Dimensions < 1 {
		return fmt.Errorf("invalid dimensions: %d (must be > 0)", c.Index.Dimensions)
	}
	if c.Index.QueryBits != 1 && c.Index.QueryBits != 4 {
		return fmt.Errorf("invalid query_bits: %d (must be 1 or 4)", c.Index.QueryBits)
	}
	if c.Index.IndexBits != 1 {
		return fmt.Errorf("invalid index_bits: %d (must be 1)", c.Index.IndexBits)
	}
	if c.Index.Lambda < 0 || c.Index.Lambda > 1 {
		return fmt.Errorf("invalid lambda: %v (must be in [0,1])", c.Index.Lambda)
	}
	if c.Index.Iters < 1 {
		return fmt.Errorf("invalid iters: %d (must be > 0)", c.Index.Iters)
	}
	if c.Index.BatchSize < 1 {
		return fmt.Errorf("invalid batch_size: %d (must be > 0)", c.Index.BatchSize)
	}

	return nil
}

// Address returns the server address (host:port).
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
