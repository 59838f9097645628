package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/vectordb/internal/config"
	"github.com/liliang-cn/vectordb/internal/corelog"
	"github.com/liliang-cn/vectordb/internal/embedclient"
	"github.com/liliang-cn/vectordb/internal/httpapi"
	"github.com/liliang-cn/vectordb/internal/persistence/sqlite"
	"github.com/liliang-cn/vectordb/internal/vectorservice"
	"github.com/liliang-cn/vectordb/pkg/index"
)

const buildVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "vectordbd",
	Short: "Per-library vector database service",
	Long:  "vectordbd serves a network-accessible vector database: libraries of documents and chunks, each backed by a Flat, IVF, or SimHash LSH index.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("vectordbd " + buildVersion)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the SQLite schema at the configured database path and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd, serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := corelog.NewStd(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := sqlite.Open(ctx, cfg.Database.Path, logger.With("component", "sqlite"))
	if err != nil {
		return fmt.Errorf("open persistence store: %w", err)
	}
	defer store.Close()

	registry := buildRegistry(cfg.Index)
	service := vectorservice.New(store, registry, cfg.Index.DefaultType, logger.With("component", "vectorservice"))
	embedder := embedclient.New(cfg.Embed.BaseURL, cfg.Embed.Model, 90*time.Second)
	server := httpapi.New(service, embedder)

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: server,
	}

	logger.Info("starting server", "address", cfg.Address, "data_dir", cfg.DataDir, "default_index", cfg.Index.DefaultType)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-waitForSignal():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := httpServer.Close(); err != nil {
			return fmt.Errorf("forced close failed: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// runMigrate opens the configured database, which creates the schema
// as a side effect of sqlite.Open, then closes it. Useful for
// provisioning a data volume before the server's first "serve".
func runMigrate() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := corelog.NewStd(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := sqlite.Open(ctx, cfg.Database.Path, logger.With("component", "sqlite"))
	if err != nil {
		return fmt.Errorf("open persistence store: %w", err)
	}
	defer store.Close()

	logger.Info("schema ready", "path", cfg.Database.Path)
	return nil
}

func waitForSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// buildRegistry wires every index constructor the service can pick
// among by type name, tuned from cfg.
func buildRegistry(cfg config.IndexConfig) *index.Registry {
	return index.NewRegistry(map[string]index.Constructor{
		"flat": index.NewFlatCosine,
		"ivf": index.NewIVFConstructor(index.IVFOptions{
			NClusters:  cfg.IVFClusters,
			NProbes:    cfg.IVFProbes,
			TrainIters: cfg.IVFTrainIters,
			RNGSeed:    0,
		}),
		"lsh": func(dims int) index.Index {
			idx, err := index.NewSimHashLSH(dims, index.SimHashLSHOptions{
				NBits:   cfg.LSHBits,
				NTables: cfg.LSHTables,
				RNGSeed: 0,
			})
			if err != nil {
				panic(fmt.Sprintf("invalid LSH configuration: %v", err))
			}
			return idx
		},
	})
}
