package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/benchref/internal/config"
)

var (
	cfg        config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "refload",
	Short: "Medicare benchmark reference loader and code resolver",
	Long: "Loads CMS reference datasets (fee schedule, GPCI, ZIP crosswalk) into Postgres\n" +
		"and resolves free-text procedure descriptions and document locations against them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := cfg.LoadFromFile(configPath); err != nil {
				return err
			}
		}
		cfg.Normalize()
		return cfg.ValidateYear()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("BENCHREF_DB_URL"), "Postgres connection string (or set BENCHREF_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "", "Log format: text or json")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.IntVar(&cfg.Year, "year", 0, "Benchmark year to scope searches and imports")
	pf.StringVar(&configPath, "config", "", "Optional YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
