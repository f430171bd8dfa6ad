package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/jbravobr/Inventory-Analyzer-sub000/config"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/analyzer"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/embedding"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/usecase"
)

// probe is an exact phrase lifted from an indexed chunk. Retrieving the
// phrase should bring its source chunk back near the top.
type probe struct {
	chunkID string
	page    int
	phrase  string
}

func main() {
	indexRoot := flag.String("index", ".", "Path to the indexed directory")
	topK := flag.Int("k", 5, "Results per probe")
	modeName := flag.String("mode", "lexical", "Retrieval mode: lexical, vector, hybrid")
	probeCount := flag.Int("probes", 20, "Number of probe phrases to sample")
	phraseLen := flag.Int("words", 6, "Words per probe phrase")
	seed := flag.Int64("seed", 1, "Probe sampling seed")
	flag.Parse()

	cfg, err := config.LoadFromDir(*indexRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	mode, err := usecase.ParseMode(*modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var embedder port.Embedder
	if mode != usecase.ModeLexical {
		embedder, err = setupEmbedder(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Semantic retrieval not available: %v\n", err)
			os.Exit(1)
		}
	}

	idx, err := usecase.LoadIndex(config.IndexDir(*indexRoot), analyzer.NewTokenizer(), usecase.IndexerConfig{}, embedder, logger)
	if err != nil {
		if errors.Is(err, domain.ErrNotIndexed) {
			fmt.Fprintln(os.Stderr, "No index found. Run 'docindex index' first.")
		} else {
			fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		}
		os.Exit(1)
	}

	probes := buildProbes(idx.Chunks, *probeCount, *phraseLen, *seed)
	if len(probes) == 0 {
		fmt.Fprintln(os.Stderr, "No chunks long enough to sample probes from.")
		os.Exit(1)
	}

	retr := usecase.NewRetriever(idx, embedder, nil, nil, 0, logger)
	opts := usecase.DefaultOptions()
	opts.Mode = mode
	opts.TopK = *topK

	fmt.Println("RETRIEVAL QUALITY BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	stats := idx.Stats()
	fmt.Printf("Chunks indexed: %d (%d pages)\n", stats.Chunks, stats.Pages)
	if stats.Embedded > 0 {
		fmt.Printf("Embeddings: %d (%s)\n", stats.Embedded, idx.ModelName)
	}
	fmt.Printf("Mode: %s, probes: %d, phrase length: %d words\n", mode, len(probes), *phraseLen)
	fmt.Println(strings.Repeat("-", 70))

	ctx := context.Background()
	hitsAt1 := 0
	hitsAtK := 0
	reciprocalSum := 0.0

	for i, p := range probes {
		res, err := retr.Retrieve(ctx, p.phrase, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Probe %d failed: %v\n", i+1, err)
			os.Exit(1)
		}

		rank := rankOf(res, p.chunkID)
		marker := "MISS"
		if rank > 0 {
			marker = fmt.Sprintf("HIT @%d", rank)
			hitsAtK++
			reciprocalSum += 1.0 / float64(rank)
			if rank == 1 {
				hitsAt1++
			}
		}

		fmt.Printf("%2d. [%s] %s (page %d): \"%s\"\n", i+1, marker, p.chunkID, p.page, preview(p.phrase, 60))
	}

	n := float64(len(probes))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Recall@1:  %5.1f%% (%d/%d)\n", 100*float64(hitsAt1)/n, hitsAt1, len(probes))
	fmt.Printf("  Recall@%d:  %5.1f%% (%d/%d)\n", *topK, 100*float64(hitsAtK)/n, hitsAtK, len(probes))
	fmt.Printf("  MRR:       %.3f\n", reciprocalSum/n)

	recallK := float64(hitsAtK) / n
	if recallK > 0.9 {
		fmt.Println("  Status: GOOD - exact phrases come back from their source chunks")
	} else if recallK > 0.6 {
		fmt.Println("  Status: OK - most probes found, chunking may need tuning")
	} else {
		fmt.Println("  Status: POOR - check chunking settings and re-index")
	}
}

// buildProbes samples chunks with a seeded shuffle and lifts a phrase of
// consecutive words out of each. Chunks shorter than the phrase are skipped.
func buildProbes(chunks []domain.Chunk, count, words int, seed int64) []probe {
	if count <= 0 || words <= 0 {
		return nil
	}
	r := rand.New(rand.NewSource(seed))
	probes := make([]probe, 0, count)
	for _, i := range r.Perm(len(chunks)) {
		if len(probes) == count {
			break
		}
		c := chunks[i]
		fields := strings.Fields(c.Text)
		if len(fields) < words {
			continue
		}
		start := (len(fields) - words) / 3
		probes = append(probes, probe{
			chunkID: c.ID,
			page:    c.PageNumber,
			phrase:  strings.Join(fields[start:start+words], " "),
		})
	}
	return probes
}

func rankOf(res domain.RetrievalResult, chunkID string) int {
	for i, c := range res.Chunks {
		if c.ID == chunkID {
			return i + 1
		}
	}
	return 0
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func setupEmbedder(cfg *config.Config, logger *slog.Logger) (port.Embedder, error) {
	provider := cfg.Embedding.Provider
	if provider == "" || provider == "none" {
		return nil, fmt.Errorf("no embedding provider configured")
	}
	return embedding.New(provider, cfg.Embedding.Model, cfg.Embedding.Endpoint, cfg.Embedding.APIKeyEnv, cfg.Embedding.Dimension, logger)
}
