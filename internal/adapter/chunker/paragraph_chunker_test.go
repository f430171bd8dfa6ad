package chunker

import (
	"strings"
	"testing"
)

func TestChunkParagraph_AccumulatesUpToBudget(t *testing.T) {
	p1 := strings.Repeat("a", 30)
	p2 := strings.Repeat("b", 30)
	p3 := strings.Repeat("c", 30)
	text := p1 + "\n\n" + p2 + "\n\n" + p3

	c := New(Paragraph, Config{ChunkSize: 70, ChunkOverlap: 0, MinChunkSize: 10})
	chunks := c.Chunk(text, 1)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != p1+"\n\n"+p2 {
		t.Errorf("chunk 0 = %q", chunks[0].Text)
	}
	if chunks[1].Text != p3 {
		t.Errorf("chunk 1 = %q", chunks[1].Text)
	}
}

func TestChunkParagraph_NeverCutsParagraphs(t *testing.T) {
	big := strings.Repeat("x", 150)
	text := "curto\n\n" + big + "\n\nfim aqui"

	c := New(Paragraph, Config{ChunkSize: 70, ChunkOverlap: 0, MinChunkSize: 10})
	chunks := c.Chunk(text, 1)

	found := false
	for _, ch := range chunks {
		if ch.Text == big {
			found = true
		}
		if strings.Contains(ch.Text, "x") && len(ch.Text) < 150 {
			t.Errorf("oversized paragraph was cut: %q", ch.Text)
		}
	}
	if !found {
		t.Error("oversized paragraph missing from output")
	}
}

func TestChunkParagraph_MultilineParagraphs(t *testing.T) {
	text := "linha um\nlinha dois\n\nsegundo parágrafo"

	c := New(Paragraph, Config{ChunkSize: 25, ChunkOverlap: 0, MinChunkSize: 5})
	chunks := c.Chunk(text, 1)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != "linha um\nlinha dois" {
		t.Errorf("chunk 0 = %q", chunks[0].Text)
	}
	if chunks[1].Text != "segundo parágrafo" {
		t.Errorf("chunk 1 = %q", chunks[1].Text)
	}
}

func TestChunkParagraph_ExtraBlankLines(t *testing.T) {
	text := "um\n\n\n\ndois"

	c := New(Paragraph, Config{ChunkSize: 4, ChunkOverlap: 0, MinChunkSize: 1})
	chunks := c.Chunk(text, 1)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "um" || chunks[1].Text != "dois" {
		t.Errorf("chunks = %q, %q", chunks[0].Text, chunks[1].Text)
	}
}
