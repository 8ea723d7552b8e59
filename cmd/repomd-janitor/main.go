package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/e2llm/repomd-janitor/pkg/backend"
	"github.com/e2llm/repomd-janitor/pkg/config"
	"github.com/e2llm/repomd-janitor/pkg/repo"
	"github.com/e2llm/repomd-janitor/pkg/retention"
)

var version = "dev"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	root := flag.NewFlagSet("repomd-janitor", flag.ContinueOnError)
	root.SetOutput(os.Stderr)

	defaults := config.Default()
	var backendType string
	var s3Endpoint string
	var configPath string
	var logLevel string
	var outputFormat string
	var showVersion bool
	root.StringVar(&backendType, "backend", defaults.Backend, "backend to use (fs, s3)")
	root.StringVar(&s3Endpoint, "s3-endpoint", "", "S3 endpoint URL for S3-compatible storage (e.g., MinIO)")
	root.StringVar(&configPath, "config", "", "path to a YAML config file supplying flag defaults")
	root.StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (error, info, debug)")
	root.StringVar(&outputFormat, "output", "text", "output format for commands that support it (text, json)")
	root.BoolVar(&showVersion, "version", false, "print version and exit")
	root.Usage = func() {
		fmt.Fprintf(root.Output(), "Usage: repomd-janitor [global flags] <command> [args]\n")
		fmt.Fprintf(root.Output(), "Commands: prune, migrate, plan\n\n")
		root.PrintDefaults()
	}

	if err := root.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Fprintf(os.Stdout, "%s\n", version)
		return nil
	}

	cfg := defaults
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		// Flags given explicitly win over the config file.
		set := make(map[string]bool)
		root.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["backend"] {
			backendType = cfg.Backend
		}
		if !set["s3-endpoint"] && cfg.S3Endpoint != "" {
			s3Endpoint = cfg.S3Endpoint
		}
		if !set["log-level"] {
			logLevel = cfg.LogLevel
		}
	}

	remaining := root.Args()
	if len(remaining) == 0 {
		root.Usage()
		return fmt.Errorf("missing command")
	}

	switch remaining[0] {
	case "prune":
		return runPrune(ctx, backendType, s3Endpoint, logLevel, cfg, remaining[1:])
	case "migrate":
		return runMigrate(ctx, backendType, s3Endpoint, logLevel, cfg, remaining[1:])
	case "plan":
		return runPlan(ctx, backendType, s3Endpoint, logLevel, outputFormat, cfg, remaining[1:])
	default:
		return fmt.Errorf("unknown command %q", remaining[0])
	}
}

func runPrune(ctx context.Context, backendType, s3Endpoint, logLevel string, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var repoRoot string
	var retain int
	fs.StringVar(&repoRoot, "repo-root", "", "repository root path or URI")
	fs.IntVar(&retain, "retain", cfg.Retain, "historical metadata files to keep per family (-1 keeps all)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if repoRoot == "" {
		return fmt.Errorf("--repo-root is required")
	}
	b, err := buildBackend(ctx, backendType, repoRoot, s3Endpoint)
	if err != nil {
		return err
	}
	r, err := newRepo(b, logLevel)
	if err != nil {
		return err
	}
	if err := r.PruneOldMetadata(ctx, retain); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "pruned old metadata at %s (retain: %d)\n", repoRoot, retain)
	return nil
}

func runMigrate(ctx context.Context, backendType, s3Endpoint, logLevel string, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var oldRoot string
	var newRoot string
	var retain int
	var strategyName string
	fs.StringVar(&oldRoot, "old-root", "", "old repository root path or URI")
	fs.StringVar(&newRoot, "new-root", "", "new repository root path or URI")
	fs.IntVar(&retain, "retain", cfg.Retain, "historical metadata files to keep per family (-1 keeps all)")
	fs.StringVar(&strategyName, "strategy", cfg.Strategy, "blacklist strategy (classic, repomd)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if oldRoot == "" || newRoot == "" {
		return fmt.Errorf("--old-root and --new-root are required")
	}
	strategy, err := retention.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	oldB, err := buildBackend(ctx, backendType, oldRoot, s3Endpoint)
	if err != nil {
		return err
	}
	newB, err := buildBackend(ctx, backendType, newRoot, s3Endpoint)
	if err != nil {
		return err
	}
	r, err := newRepo(oldB, logLevel)
	if err != nil {
		return err
	}
	r.Strategy = strategy
	if err := r.MigrateOldMetadata(ctx, newB, retain); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "migrated old metadata %s -> %s (retain: %d)\n", oldRoot, newRoot, retain)
	return nil
}

func runPlan(ctx context.Context, backendType, s3Endpoint, logLevel, outputFormat string, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var action string
	var repoRoot string
	var oldRoot string
	var newRoot string
	var retain int
	var strategyName string
	fs.StringVar(&action, "action", "prune", "operation to plan (prune, migrate)")
	fs.StringVar(&repoRoot, "repo-root", "", "repository root path or URI (prune)")
	fs.StringVar(&oldRoot, "old-root", "", "old repository root path or URI (migrate)")
	fs.StringVar(&newRoot, "new-root", "", "new repository root path or URI (migrate)")
	fs.IntVar(&retain, "retain", cfg.Retain, "historical metadata files to keep per family (-1 keeps all)")
	fs.StringVar(&strategyName, "strategy", cfg.Strategy, "blacklist strategy for migrate (classic, repomd)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	var report repo.Report
	switch action {
	case "prune":
		if repoRoot == "" {
			return fmt.Errorf("--repo-root is required")
		}
		b, err := buildBackend(ctx, backendType, repoRoot, s3Endpoint)
		if err != nil {
			return err
		}
		r, err := newRepo(b, logLevel)
		if err != nil {
			return err
		}
		report, err = r.PlanPrune(ctx, retain)
		if err != nil {
			return err
		}
	case "migrate":
		if oldRoot == "" || newRoot == "" {
			return fmt.Errorf("--old-root and --new-root are required")
		}
		strategy, err := retention.ParseStrategy(strategyName)
		if err != nil {
			return err
		}
		oldB, err := buildBackend(ctx, backendType, oldRoot, s3Endpoint)
		if err != nil {
			return err
		}
		newB, err := buildBackend(ctx, backendType, newRoot, s3Endpoint)
		if err != nil {
			return err
		}
		r, err := newRepo(oldB, logLevel)
		if err != nil {
			return err
		}
		r.Strategy = strategy
		report, err = r.PlanMigrate(ctx, newB, retain)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown plan action %q", action)
	}

	switch outputFormat {
	case "text":
		printReport(os.Stdout, report)
	case "json":
		if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
	return nil
}

func printReport(w io.Writer, report repo.Report) {
	for _, p := range report.Delete {
		fmt.Fprintf(w, "delete %s\n", p)
	}
	for _, p := range report.Copy {
		fmt.Fprintf(w, "copy %s\n", p)
	}
	for _, p := range report.Skip {
		fmt.Fprintf(w, "skip %s\n", p)
	}
}

func buildBackend(ctx context.Context, backendType, repoRoot, s3Endpoint string) (backend.Backend, error) {
	switch backendType {
	case "fs":
		return backend.NewFSBackend(repoRoot), nil
	case "s3":
		return backend.NewS3Backend(ctx, repoRoot, s3Endpoint)
	default:
		return nil, fmt.Errorf("backend %q not implemented", backendType)
	}
}

func newRepo(b backend.Backend, level string) (*repo.Repo, error) {
	r := repo.New(b)
	switch strings.ToLower(level) {
	case "error":
		r.WithLogger(io.Discard)
	case "debug":
		r.Debug = true
	case "info":
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return r, nil
}
