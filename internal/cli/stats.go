package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbravobr/Inventory-Analyzer-sub000/config"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/usecase"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of the persisted index",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	idx, err := usecase.LoadIndex(config.IndexDir(root), buildTokenizer(cfg), indexerConfig(cfg), nil, log)
	if err != nil {
		if errors.Is(err, domain.ErrNotIndexed) {
			return fmt.Errorf("no index found. Run 'docindex index' first")
		}
		return fmt.Errorf("failed to load index: %w", err)
	}

	stats := idx.Stats()

	if statsJSON {
		output, _ := json.MarshalIndent(map[string]any{
			"pages":         stats.Pages,
			"chunks":        stats.Chunks,
			"terms":         stats.Terms,
			"avg_chunk_len": stats.AvgChunkLen,
			"embedded":      stats.Embedded,
			"model":         idx.ModelName,
		}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Index statistics:\n")
	fmt.Printf("  Pages:          %d\n", stats.Pages)
	fmt.Printf("  Chunks:         %d\n", stats.Chunks)
	fmt.Printf("  Distinct terms: %d\n", stats.Terms)
	fmt.Printf("  Avg chunk len:  %.1f tokens\n", stats.AvgChunkLen)
	if stats.Embedded > 0 {
		fmt.Printf("  Embeddings:     %d (%s)\n", stats.Embedded, idx.ModelName)
	} else {
		fmt.Printf("  Embeddings:     none (lexical only)\n")
	}
	return nil
}
