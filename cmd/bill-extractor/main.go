package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/billworks/bill-extractor/internal/bill"
	"github.com/billworks/bill-extractor/internal/extraction"
	"github.com/billworks/bill-extractor/internal/ocr"
	"github.com/billworks/bill-extractor/internal/pagesource"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Optional .env for local development; flags and env vars still win.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("bill-extractor")
	var (
		port            = fs.IntLong("port", 8000, "HTTP server port")
		dbPath          = fs.StringLong("db", "bill-extractor.db", "Extraction history database file path")
		provider        = fs.StringLong("provider", "gemini", "Extraction provider: 'gemini', 'openai' or 'ollama'")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		openaiKey       = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel     = fs.StringLong("openai-model", "gpt-4o", "OpenAI model name (needs vision support)")
		openaiBaseURL   = fs.StringLong("openai-base-url", "", "OpenAI-compatible API base URL")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "llava", "Ollama vision model name (e.g. llava, qwen2-vl)")
		ocrLang         = fs.StringLong("ocr-lang", "eng", "Tesseract OCR language(s), '+' separated")
		concurrency     = fs.IntLong("concurrency", 4, "Maximum pages processed in parallel per document")
		maxPages        = fs.IntLong("max-pages", 0, "Maximum PDF pages per document (0 = no limit)")
		downloadTimeout = fs.DurationLong("download-timeout", 30*time.Second, "Document download timeout")
		requestTimeout  = fs.DurationLong("request-timeout", 5*time.Minute, "Overall extraction request timeout (0 = none)")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BILL_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger := slog.Default()

	// Initialize extraction history store
	slog.Info("Initializing database...")
	db, err := bill.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize structured extractor based on provider
	var extractor extraction.Extractor
	switch *provider {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = extraction.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "openai":
		apiKey := *openaiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("OpenAI API key is required. Set --openai-key flag or OPENAI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing OpenAI extractor...", "model", *openaiModel)
		extractor, err = extraction.NewOpenAI(apiKey, *openaiBaseURL, *openaiModel, logger)
		if err != nil {
			slog.Error("Failed to initialize OpenAI", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *ollamaModel)
		extractor, err = extraction.NewOllama(*ollamaURL, *ollamaModel, logger)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid provider", "provider", *provider, "valid", "gemini, openai or ollama")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize page source and pipeline
	source := pagesource.NewHTTPSource(*downloadTimeout, *maxPages, logger)
	recognizer := ocr.NewTesseract(*ocrLang)
	pipeline := bill.NewPipeline(recognizer, extractor, *concurrency, logger)
	service := bill.NewService(source, pipeline, db, logger)

	// Initialize server
	basicAuth := bill.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	info := bill.ServerInfo{
		Version:   version,
		Provider:  *provider,
		OCREngine: "tesseract",
	}
	server := bill.NewServer(service, basicAuth, info, *requestTimeout)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
