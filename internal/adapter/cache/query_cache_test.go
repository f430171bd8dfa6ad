package cache

import (
	"testing"
	"time"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

func scoredResults(ids ...string) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(ids))
	for i, id := range ids {
		out[i] = domain.ScoredChunk{
			Chunk: domain.Chunk{ID: id, Text: "texto " + id},
			Score: 1.0 - float64(i)*0.1,
		}
	}
	return out
}

func TestQueryCache_HitReturnsStoredResults(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("qual a multa por atraso", "k=5|mode=hybrid", scoredResults("p1_c0", "p2_c1"))

	results, hit := c.Get("qual a multa por atraso", "k=5|mode=hybrid")
	if !hit {
		t.Fatal("expected cache hit")
	}
	if len(results) != 2 || results[0].Chunk.ID != "p1_c0" {
		t.Errorf("results = %+v", results)
	}
}

func TestQueryCache_VariantIsPartOfTheKey(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("multa", "k=5|mode=hybrid", scoredResults("p1_c0"))

	if _, hit := c.Get("multa", "k=10|mode=hybrid"); hit {
		t.Error("different topK must not hit")
	}
	if _, hit := c.Get("multa", "k=5|mode=lexical"); hit {
		t.Error("different mode must not hit")
	}
	if _, hit := c.Get("multa", "k=5|mode=hybrid"); !hit {
		t.Error("identical variant must hit")
	}
}

func TestQueryCache_EntriesExpire(t *testing.T) {
	c := NewQueryCache(10, 5*time.Millisecond)
	c.Put("multa", "k=5", scoredResults("p1_c0"))

	time.Sleep(15 * time.Millisecond)

	if _, hit := c.Get("multa", "k=5"); hit {
		t.Error("expired entry served")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry still counted, Size = %d", c.Size())
	}
}

func TestQueryCache_InvalidateDropsEverything(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("multa", "k=5", scoredResults("p1_c0"))
	c.Put("aluguel", "k=5", scoredResults("p2_c0"))

	c.Invalidate()

	if c.Size() != 0 {
		t.Errorf("Size after invalidate = %d", c.Size())
	}
	if _, hit := c.Get("multa", "k=5"); hit {
		t.Error("entry survived invalidation")
	}
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("q1", "k=5", scoredResults("a"))
	c.Put("q2", "k=5", scoredResults("b"))

	// Touch q1 so q2 becomes the eviction candidate.
	if _, hit := c.Get("q1", "k=5"); !hit {
		t.Fatal("q1 should be cached")
	}

	c.Put("q3", "k=5", scoredResults("c"))

	if _, hit := c.Get("q2", "k=5"); hit {
		t.Error("least recently used entry survived")
	}
	if _, hit := c.Get("q1", "k=5"); !hit {
		t.Error("recently used entry evicted")
	}
	if _, hit := c.Get("q3", "k=5"); !hit {
		t.Error("new entry missing")
	}
}

func TestQueryCache_ZeroConfigGetsDefaults(t *testing.T) {
	c := NewQueryCache(0, 0)
	c.Put("multa", "k=5", scoredResults("p1_c0"))
	if _, hit := c.Get("multa", "k=5"); !hit {
		t.Error("cache with defaults rejected entry")
	}
}
