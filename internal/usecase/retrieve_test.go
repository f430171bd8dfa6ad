package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/cache"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

// fakeReranker scores the last document highest so reranking visibly
// reverses retrieval order.
type fakeReranker struct {
	fail  bool
	calls int
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, docs []string) ([]port.RerankScore, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("rerank backend down")
	}
	out := make([]port.RerankScore, len(docs))
	for i := range docs {
		out[i] = port.RerankScore{Index: i, Score: float64(i)}
	}
	return out, nil
}

func (f *fakeReranker) ModelID() string { return "fake-rerank" }

// hybridRetriever builds an index with vectors over contractPages and wires
// a retriever around it. queryEmb answers query-time embeddings and may be
// nil for a retriever without a vector side.
func hybridRetriever(t *testing.T, queryEmb *fakeEmbedder, queries *cache.QueryCache, reranker port.Reranker) *Retriever {
	t.Helper()
	idx := buildTestIndex(t, &fakeEmbedder{vectors: contractVectors()})
	return NewRetriever(idx, embedderOrNil(queryEmb), reranker, queries, 0, discardLogger())
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func chunkIDs(res domain.RetrievalResult) []string {
	ids := make([]string, len(res.Chunks))
	for i, c := range res.Chunks {
		ids[i] = c.ID
	}
	return ids
}

func TestRetriever_HybridFusesVectorAndLexical(t *testing.T) {
	emb := &fakeEmbedder{}
	r := hybridRetriever(t, emb, nil, nil)

	// Query embeds to [1,0,0]: cosines 1.0, 0.0, 0.6 against pages 1-3.
	// Lexically only page 1 matches, normalizing to 1.0. With keyword
	// weight 0.3 the fused scores are 1.0, 0.42 and 0.
	res, err := r.Retrieve(context.Background(), "multa por atraso", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	ids := chunkIDs(res)
	if len(ids) != 2 || ids[0] != "p1_c0" || ids[1] != "p3_c0" {
		t.Fatalf("fused order = %v", ids)
	}
	if !closeTo(res.Scores[0], 1.0) || !closeTo(res.Scores[1], 0.42) {
		t.Errorf("fused scores = %v", res.Scores)
	}
	if res.TotalRetrieved != 2 {
		t.Errorf("total = %d", res.TotalRetrieved)
	}
	if res.Metadata["mode"] != "hybrid" || res.Metadata["fusion"] != "weighted" {
		t.Errorf("metadata = %v", res.Metadata)
	}
	if res.Metadata["candidates"] != 3 {
		t.Errorf("candidates = %v", res.Metadata["candidates"])
	}
}

func TestRetriever_HybridRRF(t *testing.T) {
	r := hybridRetriever(t, &fakeEmbedder{}, nil, nil)

	opts := DefaultOptions()
	opts.Fusion = FusionRRF
	res, err := r.Retrieve(context.Background(), "multa por atraso", opts)
	if err != nil {
		t.Fatal(err)
	}

	// Rank fusion scores every listed chunk above zero, so the strict
	// minimum-score filter keeps the zero-cosine page too.
	ids := chunkIDs(res)
	if len(ids) != 3 || ids[0] != "p1_c0" || ids[1] != "p3_c0" || ids[2] != "p2_c0" {
		t.Fatalf("rrf order = %v", ids)
	}
	for i := 1; i < len(res.Scores); i++ {
		if res.Scores[i] > res.Scores[i-1] {
			t.Errorf("scores not descending: %v", res.Scores)
		}
	}
	if res.Metadata["fusion"] != "rrf" {
		t.Errorf("fusion = %v", res.Metadata["fusion"])
	}
}

func TestRetriever_LexicalModeSkipsEmbedder(t *testing.T) {
	emb := &fakeEmbedder{}
	r := hybridRetriever(t, emb, nil, nil)

	res, err := r.Retrieve(context.Background(), "multa atraso", Options{Mode: ModeLexical})
	if err != nil {
		t.Fatal(err)
	}

	if emb.calls != 0 {
		t.Errorf("embedder called %d times in lexical mode", emb.calls)
	}
	ids := chunkIDs(res)
	if len(ids) != 1 || ids[0] != "p1_c0" {
		t.Errorf("lexical results = %v", ids)
	}
	if res.Metadata["mode"] != "lexical" {
		t.Errorf("mode = %v", res.Metadata["mode"])
	}
	if _, ok := res.Metadata["fusion"]; ok {
		t.Error("lexical mode reported a fusion strategy")
	}
}

func TestRetriever_VectorMode(t *testing.T) {
	emb := &fakeEmbedder{}
	r := hybridRetriever(t, emb, nil, nil)

	res, err := r.Retrieve(context.Background(), "multa", Options{Mode: ModeVector})
	if err != nil {
		t.Fatal(err)
	}

	if emb.calls != 1 {
		t.Errorf("embedder calls = %d", emb.calls)
	}
	ids := chunkIDs(res)
	if len(ids) != 2 || ids[0] != "p1_c0" || ids[1] != "p3_c0" {
		t.Fatalf("vector results = %v", ids)
	}
	if !closeTo(res.Scores[0], 1.0) || !closeTo(res.Scores[1], 0.6) {
		t.Errorf("cosines = %v", res.Scores)
	}
}

func TestRetriever_VectorModeRequiresVectorSide(t *testing.T) {
	// No embedding provider at query time.
	r := hybridRetriever(t, nil, nil, nil)
	_, err := r.Retrieve(context.Background(), "multa", Options{Mode: ModeVector})
	if err == nil {
		t.Fatal("expected an error without an embedding provider")
	}

	// Provider present but the index was built without vectors.
	lexIdx := buildTestIndex(t, nil)
	r = NewRetriever(lexIdx, &fakeEmbedder{}, nil, nil, 0, discardLogger())
	_, err = r.Retrieve(context.Background(), "multa", Options{Mode: ModeVector})
	if !errors.Is(err, domain.ErrNotIndexed) {
		t.Errorf("expected ErrNotIndexed, got %v", err)
	}
}

func TestRetriever_HybridDegradesToLexical(t *testing.T) {
	// Provider down: the vector side fails but hybrid still answers.
	emb := &fakeEmbedder{fail: true}
	r := hybridRetriever(t, emb, nil, nil)

	res, err := r.Retrieve(context.Background(), "multa atraso", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata["degraded"] != "lexical" {
		t.Errorf("metadata = %v", res.Metadata)
	}
	ids := chunkIDs(res)
	if len(ids) != 1 || ids[0] != "p1_c0" {
		t.Errorf("degraded results = %v", ids)
	}

	// No provider configured at all behaves the same way.
	r = hybridRetriever(t, nil, nil, nil)
	res, err = r.Retrieve(context.Background(), "multa atraso", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata["degraded"] != "lexical" {
		t.Errorf("metadata without provider = %v", res.Metadata)
	}
}

func TestRetriever_EmptyQuery(t *testing.T) {
	emb := &fakeEmbedder{}
	r := hybridRetriever(t, emb, nil, nil)

	res, err := r.Retrieve(context.Background(), "   ", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalRetrieved != 0 || res.Metadata["warning"] != "empty query" {
		t.Errorf("result = %+v", res)
	}
	if emb.calls != 0 {
		t.Error("empty query reached the embedder")
	}
}

func TestRetriever_QueryBeforeBuild(t *testing.T) {
	r := NewRetriever(nil, nil, nil, nil, 0, discardLogger())

	res, err := r.Retrieve(context.Background(), "multa", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalRetrieved != 0 || res.Metadata["warning"] != "not indexed" {
		t.Errorf("result = %+v", res)
	}
}

func TestRetriever_MinScoreIsStrict(t *testing.T) {
	r := hybridRetriever(t, &fakeEmbedder{}, nil, nil)

	res, err := r.Retrieve(context.Background(), "multa",
		Options{Mode: ModeVector, MinScore: 0.99})
	if err != nil {
		t.Fatal(err)
	}
	if ids := chunkIDs(res); len(ids) != 1 || ids[0] != "p1_c0" {
		t.Errorf("minScore 0.99 kept %v", ids)
	}

	// The top cosine is exactly 1.0; a threshold of 1.0 must drop it.
	res, err = r.Retrieve(context.Background(), "multa",
		Options{Mode: ModeVector, MinScore: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalRetrieved != 0 {
		t.Errorf("minScore equal to the score kept %v", chunkIDs(res))
	}
}

func TestRetriever_PageFilter(t *testing.T) {
	r := hybridRetriever(t, &fakeEmbedder{}, nil, nil)

	res, err := r.Retrieve(context.Background(), "multa",
		Options{Mode: ModeVector, Pages: []int{3}})
	if err != nil {
		t.Fatal(err)
	}
	if ids := chunkIDs(res); len(ids) != 1 || ids[0] != "p3_c0" {
		t.Errorf("page filter kept %v", ids)
	}
}

func TestRetriever_RerankReplacesScores(t *testing.T) {
	rr := &fakeReranker{}
	r := hybridRetriever(t, &fakeEmbedder{}, nil, rr)

	res, err := r.Retrieve(context.Background(), "multa",
		Options{Mode: ModeVector, TopK: 2, Rerank: true})
	if err != nil {
		t.Fatal(err)
	}

	if rr.calls != 1 {
		t.Errorf("reranker calls = %d", rr.calls)
	}
	// The reranker scores the second candidate highest, flipping the
	// cosine order and replacing the scores with its own.
	ids := chunkIDs(res)
	if len(ids) != 2 || ids[0] != "p3_c0" || ids[1] != "p1_c0" {
		t.Fatalf("reranked order = %v", ids)
	}
	if res.Scores[0] != 1.0 || res.Scores[1] != 0.0 {
		t.Errorf("reranked scores = %v", res.Scores)
	}
	if res.Metadata["rerank"] != true {
		t.Errorf("metadata = %v", res.Metadata)
	}
}

func TestRetriever_RerankFallsBackOnFailure(t *testing.T) {
	r := hybridRetriever(t, &fakeEmbedder{}, nil, &fakeReranker{fail: true})

	res, err := r.Retrieve(context.Background(), "multa",
		Options{Mode: ModeVector, TopK: 2, Rerank: true})
	if err != nil {
		t.Fatal(err)
	}
	ids := chunkIDs(res)
	if len(ids) != 2 || ids[0] != "p1_c0" || ids[1] != "p3_c0" {
		t.Errorf("order after rerank failure = %v", ids)
	}
	if !closeTo(res.Scores[0], 1.0) || !closeTo(res.Scores[1], 0.6) {
		t.Errorf("scores after rerank failure = %v", res.Scores)
	}

	// Rerank requested but no reranker wired: same fallback.
	r = hybridRetriever(t, &fakeEmbedder{}, nil, nil)
	res, err = r.Retrieve(context.Background(), "multa",
		Options{Mode: ModeVector, TopK: 2, Rerank: true})
	if err != nil {
		t.Fatal(err)
	}
	if ids := chunkIDs(res); len(ids) != 2 || ids[0] != "p1_c0" {
		t.Errorf("order without reranker = %v", ids)
	}
}

func TestRetriever_MMRZeroDiversityKeepsRelevanceOrder(t *testing.T) {
	r := hybridRetriever(t, &fakeEmbedder{}, nil, nil)

	res, err := r.Retrieve(context.Background(), "multa",
		Options{Mode: ModeVector, TopK: 2, MMR: true, MMRDiversity: 0})
	if err != nil {
		t.Fatal(err)
	}

	ids := chunkIDs(res)
	if len(ids) != 2 || ids[0] != "p1_c0" || ids[1] != "p3_c0" {
		t.Fatalf("mmr order = %v", ids)
	}
	if !closeTo(res.Scores[0], 1.0) || !closeTo(res.Scores[1], 0.6) {
		t.Errorf("mmr kept scores = %v", res.Scores)
	}
	if res.Metadata["mmr"] != true {
		t.Errorf("metadata = %v", res.Metadata)
	}
}

func TestRetriever_MMRWithoutVectorsFallsBack(t *testing.T) {
	lexIdx := buildTestIndex(t, nil)
	r := NewRetriever(lexIdx, nil, nil, nil, 0, discardLogger())

	res, err := r.Retrieve(context.Background(), "multa atraso",
		Options{Mode: ModeLexical, TopK: 2, MMR: true, MMRDiversity: 0.7})
	if err != nil {
		t.Fatal(err)
	}
	if ids := chunkIDs(res); len(ids) != 1 || ids[0] != "p1_c0" {
		t.Errorf("fallback order = %v", ids)
	}
}

func TestRetriever_CachesResults(t *testing.T) {
	emb := &fakeEmbedder{}
	r := hybridRetriever(t, emb, cache.NewQueryCache(10, time.Minute), nil)

	opts := Options{Mode: ModeVector, TopK: 2}
	first, err := r.Retrieve(context.Background(), "multa", opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Retrieve(context.Background(), "multa", opts)
	if err != nil {
		t.Fatal(err)
	}

	if emb.calls != 1 {
		t.Errorf("embedder calls = %d, want 1", emb.calls)
	}
	if second.Metadata["cached"] != true {
		t.Errorf("second call metadata = %v", second.Metadata)
	}
	if len(first.Chunks) != len(second.Chunks) {
		t.Fatalf("cached result differs: %d vs %d chunks", len(first.Chunks), len(second.Chunks))
	}
	for i := range first.Chunks {
		if first.Chunks[i].ID != second.Chunks[i].ID || first.Scores[i] != second.Scores[i] {
			t.Errorf("cached result differs at %d", i)
		}
	}

	// Different options form a different cache key.
	if _, err := r.Retrieve(context.Background(), "multa", Options{Mode: ModeVector, TopK: 3}); err != nil {
		t.Fatal(err)
	}
	if emb.calls != 2 {
		t.Errorf("embedder calls = %d, want 2 after an option change", emb.calls)
	}
}

func TestRetrieveMultiple_DedupeKeepsBestScore(t *testing.T) {
	r := hybridRetriever(t, nil, nil, nil)
	opts := Options{Mode: ModeLexical}

	one, err := r.Retrieve(context.Background(), "multa", opts)
	if err != nil {
		t.Fatal(err)
	}
	two, err := r.Retrieve(context.Background(), "multa atraso", opts)
	if err != nil {
		t.Fatal(err)
	}
	best := math.Max(one.Scores[0], two.Scores[0])

	res, err := r.RetrieveMultiple(context.Background(), []string{"multa", "multa atraso"}, opts, true)
	if err != nil {
		t.Fatal(err)
	}

	if res.TotalRetrieved != 1 {
		t.Fatalf("dedupe kept %d chunks", res.TotalRetrieved)
	}
	if res.Chunks[0].ID != "p1_c0" || res.Scores[0] != best {
		t.Errorf("kept %s with %f, want p1_c0 with %f", res.Chunks[0].ID, res.Scores[0], best)
	}
	if res.Metadata["queries"] != 2 || res.Metadata["dedupe"] != true {
		t.Errorf("metadata = %v", res.Metadata)
	}
}

func TestRetrieveMultiple_MergesWithoutDedupe(t *testing.T) {
	r := hybridRetriever(t, nil, nil, nil)

	res, err := r.RetrieveMultiple(context.Background(),
		[]string{"multa atraso", "garantia caução"}, Options{Mode: ModeLexical}, false)
	if err != nil {
		t.Fatal(err)
	}

	if res.TotalRetrieved != 2 {
		t.Fatalf("merged %d chunks", res.TotalRetrieved)
	}
	seen := map[string]bool{}
	for _, c := range res.Chunks {
		seen[c.ID] = true
	}
	if !seen["p1_c0"] || !seen["p3_c0"] {
		t.Errorf("merged chunks = %v", chunkIDs(res))
	}
	for i := 1; i < len(res.Scores); i++ {
		if res.Scores[i] > res.Scores[i-1] {
			t.Errorf("merged scores not descending: %v", res.Scores)
		}
	}
	if res.Query != "multa atraso | garantia caução" {
		t.Errorf("joined query = %q", res.Query)
	}
}

func TestRetrieveMultiple_PropagatesErrors(t *testing.T) {
	r := hybridRetriever(t, nil, nil, nil)

	_, err := r.RetrieveMultiple(context.Background(), []string{"boom"},
		Options{Mode: ModeVector}, false)
	if err == nil || !strings.Contains(err.Error(), `query "boom"`) {
		t.Errorf("error = %v", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"lexical", ModeLexical},
		{"BM25", ModeLexical},
		{"vector", ModeVector},
		{"semantic", ModeVector},
		{"hybrid", ModeHybrid},
		{"", ModeHybrid},
		{"  Hybrid  ", ModeHybrid},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseMode(%q) = %v, %v", tc.in, got, err)
		}
	}

	if _, err := ParseMode("fulltext"); err == nil {
		t.Error("expected an error for an unknown mode")
	}

	for mode, name := range map[Mode]string{ModeHybrid: "hybrid", ModeLexical: "lexical", ModeVector: "vector"} {
		if mode.String() != name {
			t.Errorf("Mode(%d).String() = %s", mode, mode.String())
		}
	}
}
