// Package main is the BONKai CLI entry point.
package main

import (
	"context"
	"encoding/json"
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

	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/config"
	"github.com/bonkai/bonkai/internal/contentindex"
	"github.com/bonkai/bonkai/internal/dataservice"
	"github.com/bonkai/bonkai/internal/localstore"
	"github.com/bonkai/bonkai/internal/market"
	"github.com/bonkai/bonkai/internal/models"
	"github.com/bonkai/bonkai/internal/relevance"
	"github.com/bonkai/bonkai/internal/server"
	"github.com/bonkai/bonkai/internal/storage"
	"github.com/bonkai/bonkai/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/bonkai/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
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
	case "price":
		runPrice()
	case "watch":
		runWatch()
	case "search":
		runSearch()
	case "alerts":
		runAlerts()
	case "wallet":
		runWallet()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("bonkai version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustLoad(configPath string) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved))
	return cfg, logger
}

func newDataService(cfg *config.Config, logger *zap.Logger) *dataservice.Service {
	store, err := localstore.New(cfg.Storage.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open state directory: %v\n", err)
		os.Exit(1)
	}
	return dataservice.New(&cfg.Client, store, logger)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	index, err := contentindex.New(cfg.Storage.BleveIndexPath)
	if err != nil {
		logger.Fatal("Failed to initialize content index", zap.Error(err))
	}
	defer index.Close()

	tables := relevance.DefaultTables()
	if path := cfg.Storage.KeywordTablesPath; path != "" {
		loaded, loadErr := relevance.LoadTables(path)
		if loadErr != nil {
			logger.Warn("keyword tables load failed, using built-in tables",
				zap.String("path", path), zap.Error(loadErr))
		} else {
			tables = loaded
		}
	}
	registry := relevance.NewRegistry(tables, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if path := cfg.Storage.KeywordTablesPath; path != "" {
		if err := registry.Watch(watchCtx, path); err != nil {
			logger.Warn("keyword tables watch failed", zap.String("path", path), zap.Error(err))
		}
	}

	marketSvc := market.NewService(&cfg.Market, logger)
	srv := server.NewServer(store, marketSvc, index, registry, cfg, logger)

	go func() {
		if err := srv.Start(watchCtx); err != nil && err != http.ErrServerClosed {
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

// fmtStat renders an optional numeric field.
func fmtStat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%g", *v)
}

func printStats(stats *models.TokenStats, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(stats)
		return
	}
	fmt.Printf("price:       %s\n", fmtStat(stats.Price))
	fmt.Printf("market_cap:  %s\n", fmtStat(stats.MarketCap))
	fmt.Printf("change_24h:  %s\n", fmtStat(stats.Change24h))
	fmt.Printf("volume_24h:  %s\n", fmtStat(stats.Volume24h))
	if !stats.UpdatedAt.IsZero() {
		fmt.Printf("updated_at:  %s\n", stats.UpdatedAt.Format(time.RFC3339))
	}
}

func runPrice() {
	fs := flag.NewFlagSet("price", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustLoad(*configPath)
	defer logger.Sync()
	svc := newDataService(cfg, logger)

	stats, err := svc.GetTokenStats(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Price fetch failed: %v\n", err)
		os.Exit(1)
	}
	printStats(stats, *outputFormat == "json")
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustLoad(*configPath)
	defer logger.Sync()
	svc := newDataService(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	unsubscribe := svc.Subscribe(ctx, func(stats *models.TokenStats) {
		printStats(stats, *outputFormat == "json")
		if *outputFormat != "json" {
			fmt.Println("---")
		}
	})
	defer unsubscribe()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Println("Usage: bonkai search [flags] <query>")
		os.Exit(1)
	}

	cfg, logger := mustLoad(*configPath)
	defer logger.Sync()
	svc := newDataService(cfg, logger)

	hits := svc.Search(context.Background(), query)
	if len(hits) == 0 {
		fmt.Println("No results.")
		return
	}
	for _, hit := range hits {
		fmt.Printf("%-6s %-40s %.3f  %s\n", hit.Kind, utils.Truncate(hit.Title, 40), hit.Score, hit.ID)
	}
}

func runAlerts() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: bonkai alerts <list|add|remove> [flags]")
		fmt.Println("  bonkai alerts list")
		fmt.Println("  bonkai alerts add --condition above --threshold 0.00003 [--note text]")
		fmt.Println("  bonkai alerts remove <id>")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	condition := fs.String("condition", "", "alert condition: above or below")
	threshold := fs.Float64("threshold", 0, "price threshold")
	note := fs.String("note", "", "alert note")
	_ = fs.Parse(os.Args[3:])

	cfg, logger := mustLoad(*configPath)
	defer logger.Sync()
	svc := newDataService(cfg, logger)
	ctx := context.Background()

	switch sub {
	case "list":
		alerts, err := svc.ListAlerts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		if len(alerts) == 0 {
			fmt.Println("No alerts.")
			return
		}
		for _, a := range alerts {
			state := "inactive"
			if a.IsActive {
				state = "active"
			}
			fmt.Printf("%s  %s %g  [%s]  %s\n", a.ID, a.Condition, a.Threshold, state, a.Note)
		}
	case "add":
		if *condition == "" || *threshold <= 0 {
			fmt.Println("Usage: bonkai alerts add --condition above|below --threshold <price> [--note text]")
			os.Exit(1)
		}
		alert, err := svc.CreateAlert(ctx, &models.AlertInput{
			Condition: *condition,
			Threshold: *threshold,
			Note:      *note,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Create failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Alert created: %s\n", alert.ID)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: bonkai alerts remove <id>")
			os.Exit(1)
		}
		if err := svc.DeleteAlert(ctx, fs.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Remove failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Alert removed.")
	default:
		fmt.Printf("Unknown alerts subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runWallet() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: bonkai wallet <connect|disconnect|show>")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("wallet", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[3:])

	cfg, logger := mustLoad(*configPath)
	defer logger.Sync()
	svc := newDataService(cfg, logger)

	switch sub {
	case "connect":
		session := svc.ConnectWallet(context.Background())
		fmt.Printf("Connected via %s\n", session.Provider)
		fmt.Printf("address:    %s\n", session.Address)
		fmt.Printf("balance:    %g BONK\n", session.Balance)
		fmt.Printf("portfolio:  $%.2f\n", session.PortfolioValue)
	case "disconnect":
		svc.DisconnectWallet(context.Background())
		fmt.Println("Disconnected.")
	case "show":
		session, ok := svc.WalletSession()
		if !ok {
			fmt.Println("No wallet connected.")
			return
		}
		fmt.Printf("address:    %s (%s)\n", session.Address, session.Provider)
		fmt.Printf("connected:  %s\n", session.ConnectedAt.Format(time.RFC3339))
	default:
		fmt.Printf("Unknown wallet subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	kind := fs.String("kind", "alerts", "data to export: alerts, events, or audio")
	format := fs.String("format", dataservice.FormatCSV, "export format: csv, json, or xlsx")
	output := fs.String("output", "", "output file (default: bonkai-<kind>.<format>)")
	limit := fs.Int("limit", 200, "maximum records to fetch")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustLoad(*configPath)
	defer logger.Sync()
	svc := newDataService(cfg, logger)
	ctx := context.Background()

	var records any
	var err error
	switch *kind {
	case "alerts":
		records, err = svc.ListAlerts(ctx)
	case "events":
		records, err = svc.ListEvents(ctx, *limit)
	case "audio":
		records, err = svc.ListTracks(ctx, *limit)
	default:
		fmt.Printf("Unknown export kind %q; use alerts, events, or audio\n", *kind)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		os.Exit(1)
	}

	rows, err := dataservice.RowsOf(records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}

	path := *output
	if path == "" {
		path = fmt.Sprintf("bonkai-%s.%s", *kind, *format)
	}
	if err := dataservice.Export(*format, rows, path); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d record(s) to %s\n", len(rows), path)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	for _, key := range []string{"events", "tracks", "alerts", "indexed", "disk_usage_bytes"} {
		if v, ok := status[key]; ok {
			fmt.Printf("%-18s %v\n", key+":", v)
		}
	}
	if cfg, ok := status["config"].(map[string]any); ok {
		fmt.Println()
		fmt.Println("# configuration")
		for k, v := range cfg {
			fmt.Printf("%-24s %v\n", k+":", v)
		}
	}
}

func printUsage() {
	fmt.Println(`bonkai - BONK ecosystem dashboard server and client

Usage:
  bonkai server [flags]            Start the HTTP server
  bonkai price [flags]             Show the current token snapshot
  bonkai watch [flags]             Stream live token snapshots (Ctrl-C to stop)
  bonkai search [flags] <query>    Search accepted events and audio
  bonkai alerts <list|add|remove>  Manage price alerts
  bonkai wallet <connect|disconnect|show>
  bonkai export [flags]            Export alerts/events/audio to csv, json, or xlsx
  bonkai status [flags]            Show server status
  bonkai version                   Show version
  bonkai help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/bonkai/config.yaml)
  --debug            Enable debug logging

Export Flags:
  --kind string      alerts, events, or audio (default: alerts)
  --format string    csv, json, or xlsx (default: csv)
  --output string    Output file (default: bonkai-<kind>.<format>)

Examples:
  bonkai server
  bonkai price --output json
  bonkai watch
  bonkai search bonk meetup
  bonkai alerts add --condition above --threshold 0.00003 --note breakout
  bonkai export --kind events --format xlsx
  bonkai status`)
}
