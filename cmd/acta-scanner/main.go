package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ofsdigital/acta-scanner/internal/config"
	"github.com/ofsdigital/acta-scanner/internal/extract"
	"github.com/ofsdigital/acta-scanner/internal/logging"
	"github.com/ofsdigital/acta-scanner/internal/mcp"
	"github.com/ofsdigital/acta-scanner/internal/scan"
	"github.com/ofsdigital/acta-scanner/internal/server"
	"github.com/ofsdigital/acta-scanner/internal/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the root logger for the selected mode
func setupLogging(cfg *config.Config) zerolog.Logger {
	out := os.Stdout
	if cfg.IsStdioMode() {
		// In stdio mode the protocol owns stdout, logs go to stderr
		out = os.Stderr
	}
	return logging.New(cfg.LogLevel, cfg.LogFormat, out)
}

// runServerMode handles HTTP server execution with signal handling
func runServerMode(srv *server.Server, log zerolog.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Start()
	}()

	select {
	case sig := <-signalCh:
		log.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
			os.Exit(1)
		}
		<-serverErrCh

	case err := <-serverErrCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}

	log.Info().Msg("server stopped")
}

// runStdioMode handles stdio tool mode execution
func runStdioMode(ctx context.Context, toolServer *mcp.Server, log zerolog.Logger) {
	// In stdio mode the parent process controls our lifecycle
	if err := toolServer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("stdio server error")
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Debug().Str("config", cfg.String()).Msg("starting")
	}

	pipeline := extract.NewPipeline(extract.Config{
		MaxPages:      cfg.MaxPDFPages,
		RenderScale:   cfg.RenderScale,
		StopAtFirstQR: cfg.StopAtFirstQR,
	}, nil, log)

	ledger := store.New(cfg.MaxRecords)
	scanner := scan.NewService(ledger, pipeline, extract.NewZXingDecoder(cfg.RenderScale), cfg.MaxUploadSize, log)

	if cfg.IsServerMode() {
		runServerMode(server.New(cfg, scanner, log), log)
		return
	}

	toolServer, err := mcp.NewServer(cfg, scanner)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create stdio server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runStdioMode(ctx, toolServer, log)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Acta Scanner\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
