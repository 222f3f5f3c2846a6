package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/ine-ocr-mcp/internal/config"
	"github.com/ironsheep/ine-ocr-mcp/internal/logging"
	"github.com/ironsheep/ine-ocr-mcp/internal/ocr"
	"github.com/ironsheep/ine-ocr-mcp/internal/pipeline"
	"github.com/ironsheep/ine-ocr-mcp/internal/roi"
	"github.com/ironsheep/ine-ocr-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("ine-ocr-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("ine-ocr-mcp - MCP server extracting holder data from INE voter cards")
			fmt.Println()
			fmt.Println("Usage: ine-ocr-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (a .env file in the working directory is also read):")
			fmt.Println("  INE_OCR_TIME_BUDGET_MS=9500       Wall-clock budget for id_ine retries")
			fmt.Println("  INE_OCR_MAX_RETRIES=2             Retries after the first attempt")
			fmt.Println("  INE_OCR_MAX_IMAGE_SIZE_MB=5       Largest accepted image")
			fmt.Println("  INE_OCR_MIN_IMAGE_BYTES=1000      Smallest accepted image")
			fmt.Println("  INE_OCR_LANGUAGE=spa              Tesseract language")
			fmt.Println("  INE_OCR_TESSERACT_CMD=tesseract   Binary used for orientation detection")
			fmt.Println("  INE_OCR_TESSDATA_PREFIX=          Tessdata directory override")
			fmt.Println("  INE_OCR_ROI_TEMPLATES=            JSON file replacing the built-in field regions")
			fmt.Println("  INE_OCR_LOG_LEVEL=info            debug, info, warn or error")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := logging.New("ine-ocr-mcp", logging.ParseLevel(cfg.LogLevel))
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	templates, err := roi.LoadOrDefault(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("ROI templates: %v", err)
	}

	engine := ocr.NewEngine(ocr.Options{
		Language:       cfg.Language,
		TessdataPrefix: cfg.TessdataPrefix,
		TesseractCmd:   cfg.TesseractCmd,
	})

	p, err := pipeline.New(pipeline.Options{
		Config:      cfg,
		Templates:   templates,
		Recognizer:  engine,
		Orientation: engine,
		Logger:      logger.With("pipeline"),
	})
	if err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if info := engine.Info(ctx); !info.Available {
		logger.Warn("tesseract unavailable, extraction will return empty fields", "error", info.Error)
	}

	srv := server.New(cfg, p, engine, logger.With("server"), Version)
	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("server stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
