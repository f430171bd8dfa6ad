//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"syscall/js"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/analyzer"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/cache"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/chunker"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/textsource"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/usecase"
)

// Browser-side index. Everything stays in memory and retrieval is lexical
// only, the build has no embedding provider to call. The retriever lives for
// the whole page session, so repeated queries go through the query cache.
var (
	tokenizer *analyzer.Tokenizer
	chk       *chunker.TextChunker
	queries   *cache.QueryCache
	index     *usecase.SearchIndex
	retr      *usecase.Retriever
	log       *slog.Logger
)

func init() {
	tokenizer = analyzer.NewTokenizer()
	chk = chunker.NewDefault()
	queries = cache.NewQueryCache(0, 0)
	log = slog.New(slog.DiscardHandler)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("docindexLoad", js.FuncOf(loadPages))
	js.Global().Set("docindexQuery", js.FuncOf(queryIndex))
	js.Global().Set("docindexStats", js.FuncOf(indexStats))
	js.Global().Set("docindexClear", js.FuncOf(clearIndex))

	<-c
}

func loadPages(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: docindexLoad(pagesJSON)")
	}

	pages, err := textsource.ParsePages([]byte(args[0].String()))
	if err != nil {
		return makeError(err.Error())
	}
	if len(pages) == 0 {
		return makeError("no pages in input")
	}

	indexer := usecase.NewIndexer(chk, tokenizer, nil, usecase.IndexerConfig{}, log)
	result, err := indexer.Build(context.Background(), pages, nil)
	if err != nil {
		return makeError("indexing failed: " + err.Error())
	}

	queries.Invalidate()
	index = result.Index
	retr = usecase.NewRetriever(index, nil, nil, queries, 0, log)

	return makeResult(map[string]interface{}{
		"success": true,
		"pages":   result.PagesIndexed,
		"chunks":  result.ChunksCreated,
	})
}

func queryIndex(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: docindexQuery(query, [topK])")
	}
	if retr == nil {
		return makeError("no index loaded, call docindexLoad first")
	}

	query := args[0].String()
	opts := usecase.DefaultOptions()
	opts.Mode = usecase.ModeLexical
	if len(args) > 1 {
		opts.TopK = args[1].Int()
	}

	result, err := retr.Retrieve(context.Background(), query, opts)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(result.Chunks))
	for i, chunk := range result.Chunks {
		output = append(output, map[string]interface{}{
			"id":    chunk.ID,
			"page":  chunk.PageNumber,
			"score": result.Scores[i],
			"text":  chunk.Text,
		})
	}

	return makeResult(map[string]interface{}{
		"query":   query,
		"results": output,
	})
}

func indexStats(this js.Value, args []js.Value) interface{} {
	if index == nil {
		return makeError("no index loaded, call docindexLoad first")
	}

	stats := index.Stats()
	return makeResult(map[string]interface{}{
		"pages":       stats.Pages,
		"chunks":      stats.Chunks,
		"terms":       stats.Terms,
		"avgChunkLen": stats.AvgChunkLen,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	queries.Invalidate()
	index = nil
	retr = nil
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
