package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jbravobr/Inventory-Analyzer-sub000/config"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/textsource"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/usecase"
)

var (
	indexPagesFile string
	indexPagesDir  string
	indexStrategy  string
	indexNoEmbed   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the document index",
	Long: `Build and persist the search index from extracted page text.
The index is stored in .docindex within the root directory.

Examples:
  docindex index --pages pages.json          # Pages from a JSON file
  docindex index --dir ./pages               # One page per text file
  docindex index --pages p.json --no-embed   # Lexical index only`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexPagesFile, "pages", "", "pages JSON file ([{\"page\":1,\"text\":...}])")
	indexCmd.Flags().StringVar(&indexPagesDir, "dir", "", "directory of page text files")
	indexCmd.Flags().StringVar(&indexStrategy, "strategy", "", "chunking strategy override (fixed, sentence, paragraph, recursive, section)")
	indexCmd.Flags().BoolVar(&indexNoEmbed, "no-embed", false, "skip embeddings, build the lexical index only")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	if (indexPagesFile == "") == (indexPagesDir == "") {
		return fmt.Errorf("exactly one of --pages or --dir is required")
	}

	var source port.PageSource
	if indexPagesFile != "" {
		source = textsource.NewJSONSource(indexPagesFile)
	} else {
		source = textsource.NewDirSource(indexPagesDir, nil, nil)
	}
	pages, err := source.Pages()
	if err != nil {
		return fmt.Errorf("load pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages found")
	}

	if indexStrategy != "" {
		cfg.Chunking.Strategy = indexStrategy
	}
	chk, err := buildChunker(cfg)
	if err != nil {
		return err
	}

	if err := config.EnsureIndexDir(root); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	var stack *embeddingStack
	if !indexNoEmbed {
		stack, err = buildEmbeddingStack(cfg, root)
		if err != nil {
			return err
		}
	}
	var embedder port.Embedder
	if stack != nil {
		embedder = stack.embedder
		defer stack.Close()
	}

	indexer := usecase.NewIndexer(chk, buildTokenizer(cfg), embedder, indexerConfig(cfg), log)

	fmt.Printf("Indexing %d pages...\n", len(pages))

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex

	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	result, err := indexer.Build(cmd.Context(), pages, progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	indexDir := config.IndexDir(root)
	if err := usecase.SaveIndex(result.Index, indexDir); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Pages indexed:  %d\n", result.PagesIndexed)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)
	if result.Embedded > 0 {
		fmt.Printf("  Embeddings:     %d (%s)\n", result.Embedded, result.Index.ModelName)
	}
	fmt.Printf("  Elapsed:        %s\n", result.Elapsed.Round(time.Millisecond))
	fmt.Printf("\nIndex stored at: %s\n", indexDir)
	return nil
}
