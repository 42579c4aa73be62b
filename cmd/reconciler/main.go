package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kickcheck/reconciler/config"
	"github.com/kickcheck/reconciler/internal/delivery/report"
	"github.com/kickcheck/reconciler/internal/infrastructure/alias"
	"github.com/kickcheck/reconciler/internal/infrastructure/cache"
	"github.com/kickcheck/reconciler/internal/infrastructure/executor"
	"github.com/kickcheck/reconciler/internal/infrastructure/stockx"
	"github.com/kickcheck/reconciler/internal/usecase"
)

var (
	flagPasted   bool
	flagOutput   string
	flagParallel bool
	flagConfig   string
	flagDebug    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconciler <inventory-file>",
		Short: "Reconcile sneaker inventory against StockX and Alias market data",
		Long: `Reconciler reads a seller inventory (CSV or pasted list), matches every
item against the StockX and Alias catalogs, resolves the exact size
variant, and writes a CSV report with live bid/ask prices, recent sales
and profit estimates per item.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().BoolVar(&flagPasted, "pasted", false, "treat the input as a pasted seller list instead of CSV")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output CSV path (default stdout)")
	cmd.Flags().BoolVar(&flagParallel, "parallel", false, "query both marketplaces concurrently")
	cmd.Flags().StringVar(&flagConfig, "config", "", "config file path")
	cmd.Flags().BoolVar(&flagDebug, "debug", false, "enable verbose logging")

	return cmd
}

func run(ctx context.Context, inputPath string) error {
	// Load configuration
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags override the config file
	debug := flagDebug || cfg.App.Debug
	parallel := flagParallel || cfg.Processing.Parallel

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read inventory file: %w", err)
	}

	format := usecase.FormatAuto
	if flagPasted {
		format = usecase.FormatPasted
	}

	parser := usecase.NewParserService(debug)
	items, parseReport, err := parser.Parse(string(raw), format)
	if err != nil {
		return fmt.Errorf("no usable inventory in %s: %w", inputPath, err)
	}
	log.Printf("Parsed %d items from %d lines (%d skipped)", len(items), parseReport.Lines, parseReport.Skipped)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)

	exec := executor.New(executor.Config{
		Interval: cfg.RateLimit.Interval,
		Retry: executor.RetryPolicy{
			MaxRetries: cfg.RateLimit.MaxRetries,
			BaseDelay:  cfg.RateLimit.BaseDelay,
		},
		Breaker: executor.BreakerConfig{
			Enabled:          cfg.RateLimit.Breaker.Enabled,
			FailureThreshold: cfg.RateLimit.Breaker.FailureThreshold,
			RecoveryTimeout:  cfg.RateLimit.Breaker.RecoveryTimeout,
		},
		Debug: debug,
	}, memoryCache)

	stockxClient := stockx.NewClient(cfg.StockX.APIKey, cfg.StockX.BaseURL, cfg.StockX.Timeout, exec, debug)
	aliasClient := alias.NewClient(cfg.Alias.APIKey, cfg.Alias.BaseURL, cfg.Alias.Timeout, exec, debug)

	// Initialize usecase layer
	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		MinConfidence:       cfg.Matching.MinConfidence,
		EnableFuzzyMatching: cfg.Matching.EnableFuzzy,
		FuzzyEditDistance:   cfg.Matching.FuzzyDistance,
		EnableDebugLogging:  debug,
	})

	engine := usecase.NewReconcileService(stockxClient, aliasClient, matcher, usecase.ReconcileConfig{
		CategoryFallback:   cfg.Resolver.CategoryOrder(),
		ProgressEvery:      cfg.Processing.ProgressEvery,
		Parallel:           parallel,
		MaxWorkers:         cfg.Processing.MaxWorkers,
		EnableDebugLogging: debug,
	})

	if debug {
		log.Printf("Matching: confidence=%.2f, fuzzy=%v", cfg.Matching.MinConfidence, cfg.Matching.EnableFuzzy)
		log.Printf("Rate limit: interval=%s, retries=%d, parallel=%v", cfg.RateLimit.Interval, cfg.RateLimit.MaxRetries, parallel)
	}

	records, stats := engine.ProcessBatch(ctx, items)
	stats.SkippedLines = parseReport.Skipped

	var out io.Writer = os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := report.NewWriter(out).Write(records); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if flagOutput != "" {
		log.Printf("Report saved: %s", flagOutput)
	}

	report.PrintSummary(os.Stderr, stats, exec.Stats())
	return nil
}

func init() {
	// Keep stdout clean for piped CSV output
	log.SetFlags(log.Ldate | log.Ltime)
	log.SetOutput(os.Stderr)
}
