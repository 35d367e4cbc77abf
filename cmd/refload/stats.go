package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/benchref/internal/db"
	"github.com/gyeh/benchref/internal/exitcode"
	"github.com/gyeh/benchref/internal/logging"
	"github.com/gyeh/benchref/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts for every reference table",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)
	ctx := context.Background()

	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()
	st := store.NewPG(pool)

	for _, table := range store.AllTables {
		n, err := st.CountExact(ctx, table)
		if err != nil {
			log.Error().Err(err).Str("table", table).Msg("count failed")
			os.Exit(exitcode.ResolveError)
		}
		fmt.Printf("%-22s %d\n", table, n)
	}
	return nil
}
