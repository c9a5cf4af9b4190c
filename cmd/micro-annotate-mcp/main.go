package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ironsheep/micro-annotate-mcp/internal/capture"
	"github.com/ironsheep/micro-annotate-mcp/internal/config"
	"github.com/ironsheep/micro-annotate-mcp/internal/document"
	"github.com/ironsheep/micro-annotate-mcp/internal/export"
	"github.com/ironsheep/micro-annotate-mcp/internal/server"
	"github.com/ironsheep/micro-annotate-mcp/internal/storage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := ""
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("micro-annotate-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q\n", args[i])
			os.Exit(2)
		}
	}

	if err := run(configPath); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("micro-annotate-mcp - MCP server for microscopy image annotation")
	fmt.Println()
	fmt.Println("Usage: micro-annotate-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c PATH  Read settings from PATH instead of ~/.micro-annotate/config.json")
	fmt.Println("  --version, -v      Print version information")
	fmt.Println("  --help, -h         Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  MICRO_ANNOTATE_LOGGING_LEVEL=debug    Enable debug logging")
	fmt.Println("  MICRO_ANNOTATE_STORAGE_PATH=...       Database location")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol, so logs go to stderr
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	db, err := storage.Connect(&storage.Config{
		Path:     cfg.Storage.Path,
		LogLevel: storage.ParseLogLevel(cfg.Storage.LogLevel),
	})
	if err != nil {
		return err
	}
	defer storage.Close(db)

	kv := storage.NewKV(db)
	calibrations := storage.NewCalibrations(db)
	saver := export.NewSaver(kv, cfg.Storage.AnnotationsKey)

	opts := document.DefaultOptions()
	opts.Canvas = cfg.CanvasOptions()
	opts.Tools = cfg.FactoryOptions()
	opts.Snap = document.SnapOptions{
		Enabled:   cfg.Tools.SnapToCircles,
		MinRadius: cfg.Tools.SnapMinRadius,
		MaxRadius: cfg.Tools.SnapMaxRadius,
	}
	opts.HistoryLimit = cfg.History.Limit
	opts.Style = cfg.Style
	opts.Calibration = cfg.DefaultCalibration()
	opts.OCRLanguage = cfg.OCR.Language

	doc, err := document.New(opts,
		document.WithLogger(logger),
		document.WithSaver(saver),
		document.WithCalibrationSink(calibrations),
	)
	if err != nil {
		return err
	}

	if cal, ok, err := calibrations.Latest(); err != nil {
		logger.Warn("failed to read saved calibration", "error", err)
	} else if ok {
		if err := doc.RestoreCalibration(cal); err != nil {
			logger.Warn("ignoring saved calibration", "error", err)
		}
	}
	if recs, err := saver.Load(); err != nil {
		logger.Warn("failed to read saved annotations", "error", err)
	} else if len(recs) > 0 {
		if err := doc.Restore(recs); err != nil {
			logger.Warn("ignoring saved annotations", "error", err)
		} else {
			logger.Info("restored annotations", "count", len(recs))
		}
	}

	captures := capture.New(kv, cfg.Storage.CaptureKey, logger)

	srv := server.New(doc, captures, server.Config{
		Name:                "micro-annotate-mcp",
		Version:             Version,
		CaptureMaxDimension: cfg.Capture.MaxDimension,
		CaptureQuality:      cfg.Capture.JPEGQuality,
	}, logger)
	return srv.Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}
