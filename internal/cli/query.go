package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbravobr/Inventory-Analyzer-sub000/config"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/retriever"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/usecase"
)

var (
	queryText     string
	queryTopK     int
	queryMode     string
	queryMinScore float64
	queryRerank   bool
	queryMMR      bool
	queryExpand   bool
	queryPages    []int
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the document index",
	Long: `Search indexed pages with lexical, vector or hybrid retrieval.

Examples:
  docindex query -q "multa por atraso"
  docindex query -q "prazo de vigência" -k 10 --mode lexical
  docindex query -q "garantia" --pages 3,4 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().StringVar(&queryMode, "mode", "", "retrieval mode: hybrid, lexical or vector (default from config)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", -1, "drop results at or below this score")
	queryCmd.Flags().BoolVar(&queryRerank, "rerank", false, "rescore results with the configured reranker")
	queryCmd.Flags().BoolVar(&queryMMR, "mmr", false, "diversify results with maximal marginal relevance")
	queryCmd.Flags().BoolVar(&queryExpand, "expand", false, "also search synonym variants of the query")
	queryCmd.Flags().IntSliceVar(&queryPages, "pages", nil, "restrict results to these page numbers")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	opts, err := retrieveOptions(cfg)
	if err != nil {
		return err
	}
	if queryTopK > 0 {
		opts.TopK = queryTopK
	}
	if queryMode != "" {
		opts.Mode, err = usecase.ParseMode(queryMode)
		if err != nil {
			return err
		}
	}
	if queryMinScore >= 0 {
		opts.MinScore = queryMinScore
	}
	if queryRerank {
		opts.Rerank = true
	}
	if queryMMR {
		opts.MMR = true
	}
	if len(queryPages) > 0 {
		opts.Pages = queryPages
	}

	tok := buildTokenizer(cfg)

	var embedder port.Embedder
	if opts.Mode != usecase.ModeLexical {
		stack, err := buildEmbeddingStack(cfg, root)
		if err != nil {
			if opts.Mode == usecase.ModeVector {
				return err
			}
			log.Warn("embedding provider unavailable, hybrid will serve lexical results", "error", err)
		}
		if stack != nil {
			embedder = stack.embedder
			defer stack.Close()
		}
	}

	idx, err := usecase.LoadIndex(config.IndexDir(root), tok, indexerConfig(cfg), embedder, log)
	if err != nil {
		if errors.Is(err, domain.ErrNotIndexed) {
			return fmt.Errorf("no index found. Run 'docindex index' first")
		}
		return fmt.Errorf("failed to load index: %w", err)
	}

	var reranker port.Reranker
	if opts.Rerank {
		reranker, err = buildReranker(cfg, tok)
		if err != nil {
			return err
		}
	}

	retr := usecase.NewRetriever(idx, embedder, reranker, nil, cfg.Embedding.ParseQueryTimeout(), log)

	var result domain.RetrievalResult
	if queryExpand {
		queries := retriever.NewQueryExpander(tok).Expand(queryText)
		result, err = retr.RetrieveMultiple(cmd.Context(), queries, opts, true)
	} else {
		result, err = retr.Retrieve(cmd.Context(), queryText, opts)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if warning, ok := result.Metadata["warning"]; ok {
		fmt.Printf("Warning: %v\n", warning)
	}
	if result.Metadata["degraded"] != nil {
		fmt.Println("Note: vector side unavailable, showing lexical scores only.")
	}
	if result.TotalRetrieved == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", result.TotalRetrieved, queryText)
	for i, chunk := range result.Chunks {
		fmt.Printf("--- [%d] %s (page %d, score %.3f) ---\n",
			i+1, chunk.ID, chunk.PageNumber, result.Scores[i])
		fmt.Println(snippet(chunk.Text, 300))
		fmt.Println()
	}
	return nil
}

// snippet flattens and truncates chunk text for terminal display without
// splitting a multi-byte character.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
