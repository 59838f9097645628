// Package config builds runtime configuration for vectordbd from the
// environment, following the FromEnv pattern used throughout the
// example pack's HTTP services.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/liliang-cn/vectordb/internal/corelog"
)

// Config captures all runtime configuration for the service.
type Config struct {
	Address  string
	DataDir  string
	Database DatabaseConfig
	Index    IndexConfig
	Embed    EmbeddingConfig
	LogLevel corelog.Level
}

// DatabaseConfig holds the SQLite persistence settings.
type DatabaseConfig struct {
	Path string
}

// IndexConfig holds the index parameters cmd/vectordbd registers for
// every library of a given index type. A library's own metadata is not
// consulted for index tuning.
type IndexConfig struct {
	DefaultType   string
	IVFClusters   int
	IVFProbes     int
	IVFTrainIters int
	LSHBits       int
	LSHTables     int
}

// EmbeddingConfig describes the external embedding provider used by the
// /embed convenience endpoint.
type EmbeddingConfig struct {
	BaseURL string
	Model   string
}

// FromEnv builds a Config from environment variables, applying sensible
// defaults and validating the result.
func FromEnv() (Config, error) {
	cfg := Config{
		Address: getEnv("VECTORDB_ADDR", "127.0.0.1:8089"),
		DataDir: getEnv("VECTORDB_DATA_DIR", "./data"),
		Database: DatabaseConfig{
			Path: getEnv("VECTORDB_DB_PATH", "./data/vectordb.sqlite"),
		},
		Index: IndexConfig{
			DefaultType:   getEnv("VECTORDB_DEFAULT_INDEX", "flat"),
			IVFClusters:   getEnvInt("VECTORDB_IVF_CLUSTERS", 16),
			IVFProbes:     getEnvInt("VECTORDB_IVF_PROBES", 4),
			IVFTrainIters: getEnvInt("VECTORDB_IVF_TRAIN_ITERS", 25),
			LSHBits:       getEnvInt("VECTORDB_LSH_BITS", 12),
			LSHTables:     getEnvInt("VECTORDB_LSH_TABLES", 4),
		},
		Embed: EmbeddingConfig{
			BaseURL: strings.TrimRight(getEnv("VECTORDB_EMBED_URL", "http://localhost:11434"), "/"),
			Model:   getEnv("VECTORDB_EMBED_MODEL", "nomic-embed-text"),
		},
		LogLevel: parseLevel(getEnv("VECTORDB_LOG_LEVEL", "info")),
	}

	if !filepath.IsAbs(cfg.DataDir) {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = abs
	}

	if cfg.Database.Path == "" {
		return Config{}, fmt.Errorf("VECTORDB_DB_PATH must not be empty")
	}

	switch cfg.Index.DefaultType {
	case "flat", "ivf", "lsh":
	default:
		return Config{}, fmt.Errorf("VECTORDB_DEFAULT_INDEX must be one of flat, ivf, lsh, got %q", cfg.Index.DefaultType)
	}

	if cfg.Index.IVFClusters <= 0 {
		return Config{}, fmt.Errorf("VECTORDB_IVF_CLUSTERS must be positive")
	}

	if cfg.Index.IVFProbes <= 0 {
		return Config{}, fmt.Errorf("VECTORDB_IVF_PROBES must be positive")
	}

	if cfg.Index.LSHBits <= 0 || cfg.Index.LSHBits > 64 {
		return Config{}, fmt.Errorf("VECTORDB_LSH_BITS must be in (0, 64]")
	}

	if cfg.Index.LSHTables <= 0 {
		return Config{}, fmt.Errorf("VECTORDB_LSH_TABLES must be positive")
	}

	return cfg, nil
}

func parseLevel(s string) corelog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return corelog.LevelDebug
	case "warn", "warning":
		return corelog.LevelWarn
	case "error":
		return corelog.LevelError
	default:
		return corelog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
