package chunker

import (
	"strings"
	"testing"
)

func TestChunkSentence_GroupsWholeSentences(t *testing.T) {
	text := "Primeira sentença aqui. Segunda sentença aqui. Terceira sentença aqui. Quarta sentença aqui."
	c := New(Sentence, Config{ChunkSize: 50, ChunkOverlap: 10, MinChunkSize: 10})

	chunks := c.Chunk(text, 1)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}

	if !strings.HasPrefix(chunks[0].Text, "Primeira") || !strings.HasSuffix(chunks[0].Text, "Segunda sentença aqui.") {
		t.Errorf("chunk 0 = %q", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, "Terceira") || !strings.HasSuffix(chunks[1].Text, "Quarta sentença aqui.") {
		t.Errorf("chunk 1 = %q", chunks[1].Text)
	}

	for i, ch := range chunks {
		runes := []rune(text)
		if ch.Text != string(runes[ch.StartChar:ch.EndChar]) {
			t.Errorf("chunk %d text does not match its offsets", i)
		}
	}
}

func TestChunkSentence_OverlapCarriesLastTwoSentences(t *testing.T) {
	// Five 14-rune sentences; a budget of 60 fits four, so the second
	// chunk restarts at sentence three.
	text := strings.TrimSpace(strings.Repeat("Frase um aqui. ", 5))
	c := New(Sentence, Config{ChunkSize: 60, ChunkOverlap: 10, MinChunkSize: 10})

	chunks := c.Chunk(text, 1)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].StartChar != 0 {
		t.Errorf("chunk 0 starts at %d", chunks[0].StartChar)
	}
	if chunks[1].StartChar != 30 {
		t.Errorf("chunk 1 starts at %d, want 30 (third sentence)", chunks[1].StartChar)
	}
	if chunks[1].EndChar != len([]rune(text)) {
		t.Errorf("chunk 1 ends at %d, want %d", chunks[1].EndChar, len([]rune(text)))
	}
}

func TestChunkSentence_NoOverlapForSmallChunks(t *testing.T) {
	// Chunks of one or two sentences restart cleanly without overlap.
	text := "Primeira sentença aqui. Segunda sentença aqui. Terceira sentença aqui. Quarta sentença aqui."
	c := New(Sentence, Config{ChunkSize: 50, ChunkOverlap: 10, MinChunkSize: 10})

	chunks := c.Chunk(text, 1)
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartChar < chunks[i-1].EndChar {
			t.Errorf("chunk %d overlaps its predecessor: [%d,%d) after [%d,%d)",
				i, chunks[i].StartChar, chunks[i].EndChar,
				chunks[i-1].StartChar, chunks[i-1].EndChar)
		}
	}
}

func TestChunkSentence_SingleLongSentence(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("palavra ", 40)) + "."
	c := New(Sentence, Config{ChunkSize: 100, ChunkOverlap: 10, MinChunkSize: 10})

	chunks := c.Chunk(text, 1)
	if len(chunks) != 1 {
		t.Fatalf("expected a single oversized chunk, got %d", len(chunks))
	}
	if chunks[0].StartChar != 0 || chunks[0].EndChar != len([]rune(text)) {
		t.Errorf("chunk span = [%d,%d)", chunks[0].StartChar, chunks[0].EndChar)
	}
}

func TestSplitSentenceSpans(t *testing.T) {
	runes := []rune("Um. Dois! Três? Quatro")
	spans := splitSentenceSpans(runes)
	if len(spans) != 4 {
		t.Fatalf("expected 4 sentences, got %d: %v", len(spans), spans)
	}

	want := []string{"Um.", "Dois!", "Três?", "Quatro"}
	for i, sp := range spans {
		if got := string(runes[sp[0]:sp[1]]); got != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestSplitSentenceSpans_EllipsisAndAbbreviations(t *testing.T) {
	runes := []rune("Espera... Certo. Fim")
	spans := splitSentenceSpans(runes)
	if len(spans) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %v", len(spans), spans)
	}
	if got := string(runes[spans[0][0]:spans[0][1]]); got != "Espera..." {
		t.Errorf("first sentence = %q", got)
	}
}
