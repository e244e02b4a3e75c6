package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/natpio/nasz-budzet/internal/log"
)

// Supported record store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	// gRPC Server
	GRPCPort        string
	ShutdownTimeout time.Duration

	// Record store
	DataBackend  string
	SnapshotPath string
	SQLiteDBPath string

	// Postgres: DB_CONN_STR wins over the individual parts
	DBConnStr  string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// AMQP, empty URL disables settlement events
	AMQPURL      string
	AMQPExchange string

	// Savings balance seeded once into an empty store
	OpeningSavings string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		GRPCPort:        getEnv("GRPC_PORT", "50051"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SnapshotPath: getEnv("SNAPSHOT_PATH", "./data/budget.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		DBConnStr:  getEnv("DB_CONN_STR", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "budget"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),

		OpeningSavings: getEnv("OPENING_SAVINGS", "0"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// PostgresDSN returns the connection string for the postgres backend
func (c *Config) PostgresDSN() string {
	if c.DBConnStr != "" {
		return c.DBConnStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// OpeningBalance parses OpeningSavings; Validate has already rejected bad input
func (c *Config) OpeningBalance() decimal.Decimal {
	d, err := decimal.NewFromString(c.OpeningSavings)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.GRPCPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.GRPCPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	validBackends := []string{BackendMemory, BackendFile, BackendSQLite, BackendPostgres}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, err.Error())
		}
	case BackendFile:
		if c.SnapshotPath == "" {
			errors = append(errors, "snapshot path cannot be empty when using file backend")
		} else if err := ensureDir(c.SnapshotPath); err != nil {
			errors = append(errors, err.Error())
		}
	case BackendPostgres:
		if c.DBConnStr == "" && (c.DBHost == "" || c.DBName == "") {
			errors = append(errors, "either DB_CONN_STR or DB_HOST and DB_NAME must be provided for postgres backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if d, err := decimal.NewFromString(c.OpeningSavings); err != nil {
		errors = append(errors, fmt.Sprintf("invalid opening savings '%s': must be a decimal number", c.OpeningSavings))
	} else if d.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid opening savings %s: cannot be negative", d))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ensureDir creates the parent directory of path when missing
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create data directory '%s': %v", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
