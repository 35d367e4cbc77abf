package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/benchref/internal/db"
	"github.com/gyeh/benchref/internal/exitcode"
	"github.com/gyeh/benchref/internal/importer"
	"github.com/gyeh/benchref/internal/logging"
	"github.com/gyeh/benchref/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a reference dataset CSV into the store",
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to dataset CSV (required)")
	f.StringVar(&cfg.Dataset, "dataset", "", "Dataset shape: fees, gpci, or zip (required)")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)
	ctx := context.Background()

	if err := cfg.ValidateImport(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	grid, err := loadCSVGrid(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Str("file", cfg.FilePath).Msg("cannot read dataset file")
		os.Exit(exitcode.ValidationError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := importer.Run(ctx, store.NewPG(pool), log, grid, importer.Options{
		Dataset:     cfg.Dataset,
		DefaultYear: cfg.Year,
		OnProgress: func(imported, total int) {
			log.Debug().Int("imported", imported).Int("total", total).Msg("progress")
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("import failed")
		os.Exit(exitcode.ValidationError)
	}
	if summary.Err != nil {
		fmt.Printf("Import halted: %d of %d rows committed (%v)\n", summary.Imported, summary.RowsParsed, summary.Err)
		os.Exit(exitcode.PartialSuccess)
	}

	fmt.Printf("Import complete: %d rows imported, %d dropped, %d duplicates skipped (%.1fs)\n",
		summary.Imported, summary.RowsDropped, summary.DuplicatesSkipped, summary.DurationTotal.Seconds())
	return nil
}
