package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/aretw0/litedoc/internal/platform"
	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/odm"
)

var (
	verbose    bool
	target     string
	configPath string
	readOnly   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "litedoc",
	Short: "Inspect and edit litedoc document stores",
	Long: `litedoc opens an embedded document store and lets you list collections,
query documents, manage indexes and write raw JSON documents.

The store is taken from --db, or from the litedoc.yaml found in the current
directory or any parent.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&target, "db", "", "Connection target (path or Filename=...;Connection=shared)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to litedoc.yaml (default: search upwards)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Open the store read-only")
}

// resolveTarget returns the connection target and options from the flags or
// the project configuration.
func resolveTarget() (string, []platform.Option, error) {
	opts := []platform.Option{platform.WithLogger(slog.Default())}
	if readOnly {
		opts = append(opts, platform.WithReadOnly(true))
	}
	if target != "" {
		return target, opts, nil
	}

	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, err
		}
		root, err := platform.FindRoot(wd)
		if err != nil {
			return "", nil, fmt.Errorf("no --db given and no %s found", platform.ConfigFile)
		}
		path = filepath.Join(root, platform.ConfigFile)
	}

	cfg, err := platform.LoadConfig(path)
	if err != nil {
		return "", nil, err
	}
	if !verbose {
		// The configured level applies unless --verbose asked for debug.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))
		opts[0] = platform.WithLogger(slog.Default())
	}
	return cfg.Connection, append(opts, cfg.Options()...), nil
}

// openStore opens a context without declared sets; commands work on raw
// collections through its engine.
func openStore() (*odm.Context, error) {
	t, opts, err := resolveTarget()
	if err != nil {
		return nil, err
	}
	return odm.Open(&struct{}{}, t, nil, opts...)
}

// existingCollection returns the named collection without creating it.
func existingCollection(ctx context.Context, engine core.Engine, name string) (core.Collection, error) {
	names, err := engine.CollectionNames(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, name) {
		return nil, fmt.Errorf("collection %q does not exist", name)
	}
	return engine.Collection(ctx, name, core.AutoIDNone)
}
