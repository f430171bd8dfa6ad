package port

import "github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"

type Chunker interface {
	Chunk(text string, pageNumber int) []domain.Chunk

	ChunkDocument(pages []domain.Page) []domain.Chunk
}
