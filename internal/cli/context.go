package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbravobr/Inventory-Analyzer-sub000/config"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/usecase"
)

var (
	contextQuery  string
	contextBudget int
	contextTopK   int
	contextMode   string
	contextOutput string
	contextText   bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble a token-budgeted context block",
	Long: `Search the index and assemble the best-value snippets into a block
that fits a token budget. Neighbouring chunks of each hit are pulled in,
adjacent snippets from the same page are merged, and every snippet carries
its page and character range.

Examples:
  docindex context -q "multa por atraso"
  docindex context -q "prazo de vigência" -b 1000 -o context.json
  docindex context -q "garantia" --text`,
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().StringVarP(&contextQuery, "query", "q", "", "search query (required)")
	contextCmd.Flags().IntVarP(&contextBudget, "budget", "b", 0, "token budget (default from config)")
	contextCmd.Flags().IntVarP(&contextTopK, "top-k", "k", 0, "candidate pool size (default from config)")
	contextCmd.Flags().StringVar(&contextMode, "mode", "", "retrieval mode: hybrid, lexical or vector (default from config)")
	contextCmd.Flags().StringVarP(&contextOutput, "output", "o", "", "output file (default: stdout)")
	contextCmd.Flags().BoolVar(&contextText, "text", false, "print the rendered block instead of JSON")
	contextCmd.MarkFlagRequired("query")
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	opts, err := retrieveOptions(cfg)
	if err != nil {
		return err
	}
	if contextTopK > 0 {
		opts.TopK = contextTopK
	}
	if contextMode != "" {
		opts.Mode, err = usecase.ParseMode(contextMode)
		if err != nil {
			return err
		}
	}

	budget := cfg.Context.Budget
	if contextBudget > 0 {
		budget = contextBudget
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

	retr := usecase.NewRetriever(idx, embedder, nil, nil, cfg.Embedding.ParseQueryTimeout(), log)
	result, err := retr.Retrieve(cmd.Context(), contextQuery, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if result.TotalRetrieved == 0 {
		fmt.Fprintln(os.Stderr, "No relevant content found.")
		return nil
	}

	scored := make([]domain.ScoredChunk, len(result.Chunks))
	for i, c := range result.Chunks {
		scored[i] = domain.ScoredChunk{Chunk: c, Score: result.Scores[i]}
	}
	scored = usecase.NewContextExpander(idx, cfg.Context.Expand).Expand(scored)

	block := usecase.NewContextBuilder(tok).Build(contextQuery, scored, budget)

	if contextText {
		fmt.Println(block.Render())
		return nil
	}

	output, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if contextOutput != "" {
		if err := os.WriteFile(contextOutput, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Context written to: %s\n", contextOutput)
		fmt.Printf("  Snippets: %d\n", len(block.Snippets))
		fmt.Printf("  Tokens:   %d / %d\n", block.UsedTokens, block.BudgetTokens)
	} else {
		fmt.Println(string(output))
	}
	return nil
}
