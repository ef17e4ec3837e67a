package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deeparchive/deeparchive/internal/archive"
	"github.com/deeparchive/deeparchive/internal/config"
	"github.com/deeparchive/deeparchive/internal/inference"
	"github.com/deeparchive/deeparchive/internal/pipeline"
	"github.com/deeparchive/deeparchive/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		inputDir  string
		dbPath    string
		outputISO string
	)

	cmd := &cobra.Command{
		Use:   "deeparchive",
		Short: "Ingest a directory tree into a content-addressed media archive",
		Long: `deeparchive walks a directory tree, hashes every visible file,
classifies media content, optionally scores and tags visual media, and
records everything in a full-text-searchable SQLite store. Per-item
failures are logged and skipped; only initialization errors are fatal.`,
		Version:       fmt.Sprintf("%s (built %s, %s driver)", version, buildTime, storage.BuildMode),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), inputDir, dbPath, outputISO)
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "directory tree to ingest")
	cmd.Flags().StringVarP(&dbPath, "db-path", "d", "", "path of the archive database")
	cmd.Flags().StringVarP(&outputISO, "output-iso", "o", "", "optional ISO image to create after ingestion")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("db-path")

	cmd.AddCommand(newSearchCmd())

	return cmd
}

func runIngest(ctx context.Context, inputDir, dbPath, outputISO string) error {
	slog.Info("deep archive pipeline starting", "input", inputDir, "db", dbPath)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	writer := storage.NewBatchWriter(store, cfg.BatchSize)

	// Inference is best-effort: missing models degrade to an
	// unenriched run, they never abort it.
	var engine *inference.Engine
	if paths, err := config.ResolveModelPaths(); err != nil {
		slog.Error("inference unavailable, ingesting without enrichment", "error", err)
	} else if engine, err = inference.New(paths.Safety, paths.Tagger); err != nil {
		slog.Error("failed to initialize inference engine", "error", err)
		engine = nil
	}

	p := pipeline.New(cfg, writer, pipeline.Options{Engine: engine})
	if err := p.Run(ctx, inputDir); err != nil {
		return err
	}

	if outputISO != "" {
		slog.Info("creating ISO archive", "path", outputISO)
		if err := archive.CreateISO(ctx, inputDir, outputISO); err != nil {
			return err
		}
		slog.Info("ISO created")
	}

	slog.Info("pipeline completed")
	return nil
}

func newSearchCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over ingested paths and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			results, err := store.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Tags != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t[%s]\n", r.OriginalPath, r.Tags)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), r.OriginalPath)
				}
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no matches")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dbPath, "db-path", "d", "", "path of the archive database")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	_ = cmd.MarkFlagRequired("db-path")

	return cmd
}
