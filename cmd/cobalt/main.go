// Package main is the COBALT CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Winder2006/COBALT/internal/config"
	"github.com/Winder2006/COBALT/internal/discovery"
	"github.com/Winder2006/COBALT/internal/extract"
	"github.com/Winder2006/COBALT/internal/fetch"
	"github.com/Winder2006/COBALT/internal/render"
	"github.com/Winder2006/COBALT/internal/server"
	"github.com/Winder2006/COBALT/internal/service"
	"github.com/Winder2006/COBALT/internal/session"
	"github.com/Winder2006/COBALT/internal/storage"
	"github.com/Winder2006/COBALT/internal/watcher"
	"github.com/Winder2006/COBALT/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/cobalt/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present; when neither exists the built-in defaults are used.
// Returns the config and the path actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg, err := config.LoadOrDefault("")
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "discover":
		runDiscover()
	case "extract":
		runExtract()
	case "render":
		os.Exit(runRender(os.Args[2:], os.Stdout))
	case "version", "--version", "-v":
		fmt.Printf("cobalt version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds the long-lived objects built from config.
type components struct {
	Service *service.Service
	Cache   *storage.SQLiteCache
}

func (c *components) Close() {
	if c.Service != nil {
		_ = c.Service.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

func newClient(cfg *config.Config, logger *zap.Logger) *fetch.Client {
	opts := []fetch.ClientOption{
		fetch.WithLogger(logger),
		fetch.WithTimeout(cfg.Extract.DownloadTimeout),
		fetch.WithMinDocumentBytes(cfg.Extract.MinDocumentBytes),
		fetch.WithMaxBytes(cfg.Extract.MaxBytes),
	}
	if cfg.Remote.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(cfg.Remote.UserAgent))
	}
	return fetch.NewClient(opts...)
}

// discoveryOptions maps config onto discovery options. configPath is forwarded to the
// default rendering child so it sees the same renderer settings. Without a rendering
// endpoint the default child cannot succeed, so the rendered strategy is skipped unless a
// custom command is configured.
func discoveryOptions(cfg *config.Config, configPath string, logger *zap.Logger) []discovery.Option {
	pageOpts := []fetch.ClientOption{fetch.WithLogger(logger), fetch.WithTimeout(cfg.Remote.Timeout)}
	if cfg.Remote.UserAgent != "" {
		pageOpts = append(pageOpts, fetch.WithUserAgent(cfg.Remote.UserAgent))
	}
	opts := []discovery.Option{
		discovery.WithLogger(logger),
		discovery.WithClient(fetch.NewClient(pageOpts...)),
		discovery.WithRunner(utils.ExecRunner{Logger: logger}),
		discovery.WithDetailURLFormat(cfg.Remote.DetailURL),
		discovery.WithJSONEndpoints(cfg.Remote.SiteEndpoint, cfg.Remote.DocumentsEndpoint),
		discovery.WithRenderTimeout(cfg.Renderer.Timeout),
	}
	switch {
	case !cfg.Renderer.EnabledOrDefault():
		opts = append(opts, discovery.WithoutRenderer())
	case cfg.Renderer.Command == "" && cfg.Renderer.Endpoint == "":
		logger.Debug("no rendering endpoint configured, rendered strategy disabled")
		opts = append(opts, discovery.WithoutRenderer())
	case cfg.Renderer.Command != "":
		opts = append(opts, discovery.WithRenderCommand(cfg.Renderer.Command, cfg.Renderer.Args...))
	case configPath != "":
		if exe, err := os.Executable(); err == nil {
			opts = append(opts, discovery.WithRenderCommand(exe, "render", "-config", configPath, "{dsn}"))
		}
	}
	return opts
}

func initializeComponents(cfg *config.Config, configPath string, logger *zap.Logger) (*components, error) {
	engine, err := watcher.EngineFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	cache, err := storage.NewSQLiteCache(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("text cache: %w", err)
	}
	client := newClient(cfg, logger)

	exOpts := []extract.ExtractorOption{
		extract.WithLogger(logger),
		extract.WithFetcher(extract.HTTPFetcher{Client: client}),
		extract.WithCache(cache),
		extract.WithDefaultLimit(cfg.Extract.DefaultLimit),
	}
	if cfg.Extract.Pdftotext != "" {
		exOpts = append(exOpts, extract.WithPdftotext(cfg.Extract.Pdftotext, utils.ExecRunner{Logger: logger}))
	}

	svc := service.New(
		discovery.New(discoveryOptions(cfg, configPath, logger)...),
		extract.NewExtractor(exOpts...),
		session.NewRegistry(cfg.Sessions.Root, client, session.WithLogger(logger)),
		service.WithLogger(logger),
		service.WithEngine(engine),
		service.WithCache(cache),
	)
	return &components{Service: svc, Cache: cache}, nil
}

// setup parses the shared flags and returns the config, its path and a logger.
func setup(fs *flag.FlagSet, args []string) (*config.Config, string, *zap.Logger) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(argsReorder(args))

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	port := fs.Int("port", 0, "listen port (overrides config)")
	cfg, configPath, logger := setup(fs, os.Args[2:])
	defer logger.Sync()
	if *port > 0 {
		cfg.Server.Port = *port
	}
	logger.Info("config loaded", zap.String("config_path", configPath), zap.Bool("debug", cfg.Debug))

	comps, err := initializeComponents(cfg, configPath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Risk.Watch && configPath != "" {
		w := watcher.NewWatcher([]string{configPath}, watcher.RiskReloader(comps.Service, logger), watcher.WithLogger(logger))
		if err := w.Start(watchCtx); err != nil {
			logger.Warn("config watcher not started", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	srv := server.NewServer(comps.Service, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runDiscover() {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	cfg, configPath, logger := setup(fs, os.Args[2:])
	defer logger.Sync()
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cobalt discover [flags] <brrts-id>")
		os.Exit(1)
	}

	d := discovery.New(discoveryOptions(cfg, configPath, logger)...)
	res, err := d.Discover(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
		os.Exit(1)
	}
	if *asJSON {
		if err := printJSON(os.Stdout, res); err != nil {
			os.Exit(1)
		}
		return
	}
	fmt.Println(res.Summary)
	fmt.Println()
	fmt.Println(discovery.DocumentListing(res.Documents))
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	limit := fs.Int("limit", 0, "maximum documents to extract (default from config)")
	cfg, configPath, logger := setup(fs, os.Args[2:])
	defer logger.Sync()
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cobalt extract [flags] <brrts-id>")
		os.Exit(1)
	}

	comps, err := initializeComponents(cfg, configPath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	ctx := context.Background()
	list, err := comps.Service.Documents(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
		os.Exit(1)
	}
	if list.Count == 0 {
		fmt.Fprintln(os.Stderr, "No documents found.")
		os.Exit(1)
	}
	resp, err := comps.Service.Extract(ctx, service.ExtractRequest{Documents: list.Documents, Limit: *limit})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		os.Exit(1)
	}
	// Drop the text from the printed per-document results; it is in combined_text.
	for i := range resp.Documents {
		resp.Documents[i].ExtractedText = ""
	}
	if err := printJSON(os.Stdout, resp); err != nil {
		os.Exit(1)
	}
}

// runRender is the rendering child: it writes one JSON payload to out and returns the exit
// code. Every failure is reported inside the payload as well as by a non-zero code.
func runRender(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	if err := fs.Parse(argsReorder(args)); err != nil || fs.NArg() != 1 {
		_ = render.Write(out, render.Failed(errors.New("usage: cobalt render [-config path] <dsn>")))
		return 1
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		_ = render.Write(out, render.Failed(err))
		return 1
	}
	// Stdout carries the payload; the parent captures stderr.
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	backend := &render.Browserless{
		Endpoint: cfg.Renderer.Endpoint,
		Token:    cfg.Renderer.Token,
		Settle:   cfg.Renderer.Settle,
	}
	scraper := render.NewScraper(backend, render.WithLogger(logger), render.WithDetailURLFormat(cfg.Remote.DetailURL))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Renderer.Timeout)
	defer cancel()

	payload := scraper.Scrape(ctx, fs.Arg(0))
	if err := render.Write(out, payload); err != nil {
		return 1
	}
	if payload.Error != nil {
		return 1
	}
	return 0
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// argsReorder moves flags (and their values) ahead of positional args so that
// "cobalt discover 588459 -json" parses like "cobalt discover -json 588459".
func argsReorder(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") || a == "-" {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		if strings.Contains(a, "=") || isBoolFlag(a) {
			continue
		}
		if i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return append(flags, positional...)
}

func isBoolFlag(a string) bool {
	switch strings.TrimLeft(a, "-") {
	case "debug", "json":
		return true
	}
	return false
}

func printUsage() {
	fmt.Println(`cobalt - Wisconsin DNR BRRTS site discovery, document extraction and risk analysis

Usage:
  cobalt server [flags]              Start the HTTP API
  cobalt discover [flags] <id>       Discover a site's record, risk flags and documents
  cobalt extract [flags] <id>        Discover, download and extract a site's documents
  cobalt render [flags] <dsn>        Render the detail page and print the JSON payload
  cobalt version                     Show version
  cobalt help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/cobalt/config.yaml, or ./config.yaml)
  --debug            Enable debug logging

Server Flags:
  --port int         Listen port (overrides config)

Discover Flags:
  --json             Print the full result as JSON

Extract Flags:
  --limit int        Maximum documents to extract (default from config)`)
}
