package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

func newTestOllama(t *testing.T, baseURL string) *OllamaEmbedder {
	t.Helper()
	e, err := NewOllamaEmbedder(baseURL, "nomic-embed-text", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestOllamaEmbedder_OneRequestPerText(t *testing.T) {
	var inputs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		inputs = append(inputs, req.Input)
		fmt.Fprintf(w, `{"model": %q, "embeddings": [[0.1, 0.2]]}`, req.Model)
	}))
	defer srv.Close()

	e := newTestOllama(t, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"multa", "aluguel", "fiador"})
	if err != nil {
		t.Fatal(err)
	}

	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	if len(inputs) != 3 || inputs[0] != "multa" || inputs[2] != "fiador" {
		t.Errorf("server saw inputs %v", inputs)
	}
	if vecs[0][1] != 0.2 {
		t.Errorf("vector = %v", vecs[0])
	}
}

func TestOllamaEmbedder_ServerErrorIsProviderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "model not loaded"}`)
	}))
	defer srv.Close()

	e := newTestOllama(t, srv.URL)
	_, err := e.Embed(context.Background(), []string{"multa"})

	var unavailable *domain.ProviderUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ProviderUnavailableError, got %v", err)
	}
	if unavailable.Provider != "ollama" {
		t.Errorf("provider = %s", unavailable.Provider)
	}
}

func TestOllamaEmbedder_CancellationStopsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		if served == 2 {
			cancel()
		}
		fmt.Fprint(w, `{"model": "nomic-embed-text", "embeddings": [[0.1]]}`)
	}))
	defer srv.Close()

	e := newTestOllama(t, srv.URL)
	_, err := e.Embed(ctx, []string{"um", "dois", "três", "quatro"})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if served != 2 {
		t.Errorf("server handled %d requests after cancellation, want 2", served)
	}
}

func TestOllamaEmbedder_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version": "0.5.0"}`)
	}))

	e := newTestOllama(t, srv.URL)
	if !e.Available(context.Background()) {
		t.Error("expected server to be available")
	}

	srv.Close()
	if e.Available(context.Background()) {
		t.Error("expected closed server to be unavailable")
	}
}

func TestOllamaEmbedder_Defaults(t *testing.T) {
	e, err := NewOllamaEmbedder("", "", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if e.ModelID() != "nomic-embed-text" || e.Dimension() != 768 {
		t.Errorf("defaults = %s/%d", e.ModelID(), e.Dimension())
	}

	tests := []struct {
		model string
		want  int
	}{
		{"nomic-embed-text", 768},
		{"mxbai-embed-large", 1024},
		{"all-minilm", 384},
		{"desconhecido", 768},
	}
	for _, tt := range tests {
		if got := ollamaDimension(tt.model); got != tt.want {
			t.Errorf("ollamaDimension(%s) = %d, want %d", tt.model, got, tt.want)
		}
	}
}
