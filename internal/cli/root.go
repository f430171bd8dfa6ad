package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jbravobr/Inventory-Analyzer-sub000/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Index and search page-oriented documents",
	Long: `docindex builds a local search index over the extracted text of
page-oriented documents (contracts, deeds, certificates) and answers
queries against it, combining BM25 lexical scoring with embedding
similarity.

Example usage:
  docindex index --pages pages.json       # Index a pages JSON file
  docindex query -q "multa por atraso"    # Search the index
  docindex context -q "prazo" --text      # Assemble a token-budgeted context
  docindex stats                          # Show corpus statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.Logging.Level),
		}))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docindex.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "root directory holding the index (default is current directory)")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func Logger() *slog.Logger {
	return log
}
