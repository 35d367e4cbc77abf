package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/benchref/internal/db"
	"github.com/gyeh/benchref/internal/exitcode"
	"github.com/gyeh/benchref/internal/locate"
	"github.com/gyeh/benchref/internal/logging"
	"github.com/gyeh/benchref/internal/store"
)

var locateTextFile string

var locateCmd = &cobra.Command{
	Use:   "locate [text...]",
	Short: "Infer a ZIP/state location from document text",
	Long:  "Scans unstructured document text for address evidence. Pass text as arguments,\nvia --text-file, or on stdin.",
	RunE:  runLocate,
}

func init() {
	locateCmd.Flags().StringVar(&locateTextFile, "text-file", "", "Read document text from a file ('-' for stdin)")
	rootCmd.AddCommand(locateCmd)
}

func locateInput(args []string) (string, error) {
	switch {
	case locateTextFile == "-":
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	case locateTextFile != "":
		data, err := os.ReadFile(locateTextFile)
		return string(data), err
	default:
		return strings.Join(args, " "), nil
	}
}

func runLocate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)
	ctx := context.Background()

	text, err := locateInput(args)
	if err != nil {
		log.Error().Err(err).Msg("cannot read document text")
		os.Exit(exitcode.ValidationError)
	}

	var st store.Store
	if cfg.DSN != "" {
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		st = store.NewPG(pool)
	} else {
		log.Debug().Msg("no DSN configured, using ZIP-prefix approximation only")
	}

	ev := locate.New(st, log).Scan(ctx, text)

	fmt.Printf("zip5:        %s\n", orDash(ev.Zip5))
	fmt.Printf("state:       %s\n", orDash(ev.StateAbbr))
	fmt.Printf("confidence:  %s\n", ev.Confidence)
	if ev.StateAbbr != "" {
		fmt.Printf("state via:   %s\n", ev.StateSource)
	}
	if ev.Evidence != "" {
		fmt.Printf("evidence:    %q\n", ev.Evidence)
	}
	if ev.Note != "" {
		fmt.Printf("note:        %s\n", ev.Note)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
