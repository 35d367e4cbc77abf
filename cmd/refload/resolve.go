package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/benchref/internal/db"
	"github.com/gyeh/benchref/internal/exitcode"
	"github.com/gyeh/benchref/internal/lexindex"
	"github.com/gyeh/benchref/internal/logging"
	"github.com/gyeh/benchref/internal/parquetread"
	"github.com/gyeh/benchref/internal/resolver"
	"github.com/gyeh/benchref/internal/store"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [description...]",
	Short: "Resolve a free-text procedure description to ranked codes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&cfg.MasterFile, "master-file", "", "Parquet master snapshot for the fallback index (default: load from store)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)
	ctx := context.Background()
	query := strings.Join(args, " ")

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

	var loader lexindex.MasterLoader = st
	if cfg.MasterFile != "" {
		loader = parquetread.MasterFileLoader{Path: cfg.MasterFile}
	}
	index := lexindex.New(loader, log)

	res := resolver.New(st, index, log, cfg.Year).Resolve(ctx, query)
	if !res.IsValidQuery {
		fmt.Printf("Invalid query: %s\n", res.Reason)
		os.Exit(exitcode.ValidationError)
	}

	if len(res.Candidates) == 0 {
		fmt.Println("No codes matched.")
		os.Exit(exitcode.ResolveError)
	}

	fmt.Printf("Method: %s\n", res.SearchMethod)
	for i, c := range res.Candidates {
		marker := " "
		if res.Primary != nil && c.Code == res.Primary.Code {
			marker = "*"
		}
		fmt.Printf("%s %d. %-7s %.2f %-6s %s\n", marker, i+1, c.Code, c.Score, c.Confidence, c.Description)
	}
	return nil
}
