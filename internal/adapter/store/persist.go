package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

const indexMagic = "VIDX01"

// File names inside a persisted index directory.
const (
	IndexFile    = "index.bin"
	MetadataFile = "metadata.json"
)

type chunkRecord struct {
	Text       string            `json:"text"`
	PageNumber int               `json:"page_number"`
	StartChar  int               `json:"start_char"`
	EndChar    int               `json:"end_char"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type indexMetadata struct {
	Chunks    map[string]chunkRecord `json:"chunks"`
	IDMapping []string               `json:"id_mapping"`
	ModelName string                 `json:"model_name"`
	Dimension int                    `json:"dimension"`
}

// Manifest identifies the embedding model behind a persisted index so
// callers can check it against their provider before serving vector
// queries.
type Manifest struct {
	ModelName string
	Dimension int
}

// Save writes the index and its chunk metadata into dir as index.bin and
// metadata.json. chunks may hold more entries than the index has vectors;
// lexical-only chunks are persisted without an id mapping entry. Files are
// written to a temporary name and renamed, so a crash never leaves a
// half-written index behind.
func Save(dir string, index *FlatIndex, chunks map[string]domain.Chunk, modelName string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	if err := writeVectors(filepath.Join(dir, IndexFile), index); err != nil {
		return err
	}
	return writeMetadata(filepath.Join(dir, MetadataFile), index, chunks, modelName)
}

// Load reads a persisted index from dir. Missing files report ErrNotIndexed;
// structural damage reports CorruptIndexError.
func Load(dir string) (*FlatIndex, map[string]domain.Chunk, Manifest, error) {
	metaPath := filepath.Join(dir, MetadataFile)
	binPath := filepath.Join(dir, IndexFile)

	metaRaw, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, Manifest{}, fmt.Errorf("no index at %s: %w", dir, domain.ErrNotIndexed)
		}
		return nil, nil, Manifest{}, fmt.Errorf("read metadata: %w", err)
	}

	var meta indexMetadata
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, nil, Manifest{}, &domain.CorruptIndexError{
			Path:   metaPath,
			Reason: "invalid metadata JSON",
			Err:    err,
		}
	}

	binRaw, err := os.ReadFile(binPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, Manifest{}, fmt.Errorf("no index at %s: %w", dir, domain.ErrNotIndexed)
		}
		return nil, nil, Manifest{}, fmt.Errorf("read vectors: %w", err)
	}

	index, err := decodeVectors(binPath, binRaw, meta)
	if err != nil {
		return nil, nil, Manifest{}, err
	}

	chunks := make(map[string]domain.Chunk, len(meta.Chunks))
	for id, rec := range meta.Chunks {
		chunks[id] = domain.Chunk{
			ID:         id,
			Text:       rec.Text,
			PageNumber: rec.PageNumber,
			StartChar:  rec.StartChar,
			EndChar:    rec.EndChar,
			Metadata:   rec.Metadata,
		}
	}

	return index, chunks, Manifest{ModelName: meta.ModelName, Dimension: meta.Dimension}, nil
}

func writeVectors(path string, index *FlatIndex) error {
	var buf bytes.Buffer
	buf.WriteString(indexMagic)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(index.dim)); err != nil {
		return fmt.Errorf("encode vector header: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(index.ids))); err != nil {
		return fmt.Errorf("encode vector header: %w", err)
	}
	for _, vec := range index.vectors {
		if err := binary.Write(&buf, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("encode vectors: %w", err)
		}
	}
	return atomicWrite(path, buf.Bytes())
}

func writeMetadata(path string, index *FlatIndex, chunks map[string]domain.Chunk, modelName string) error {
	meta := indexMetadata{
		Chunks:    make(map[string]chunkRecord, len(chunks)),
		IDMapping: append([]string{}, index.ids...),
		ModelName: modelName,
		Dimension: index.dim,
	}
	for id, chunk := range chunks {
		meta.Chunks[id] = chunkRecord{
			Text:       chunk.Text,
			PageNumber: chunk.PageNumber,
			StartChar:  chunk.StartChar,
			EndChar:    chunk.EndChar,
			Metadata:   chunk.Metadata,
		}
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return atomicWrite(path, data)
}

func decodeVectors(path string, raw []byte, meta indexMetadata) (*FlatIndex, error) {
	header := len(indexMagic) + 8
	if len(raw) < header {
		return nil, &domain.CorruptIndexError{Path: path, Reason: "file too short for header"}
	}
	if string(raw[:len(indexMagic)]) != indexMagic {
		return nil, &domain.CorruptIndexError{Path: path, Reason: "bad magic"}
	}

	dim := int(binary.LittleEndian.Uint32(raw[len(indexMagic):]))
	count := int(binary.LittleEndian.Uint32(raw[len(indexMagic)+4:]))

	if meta.Dimension != dim {
		return nil, &domain.CorruptIndexError{
			Path:   path,
			Reason: fmt.Sprintf("metadata dimension %d does not match stored %d", meta.Dimension, dim),
		}
	}
	if want := header + count*dim*4; len(raw) != want {
		return nil, &domain.CorruptIndexError{
			Path:   path,
			Reason: fmt.Sprintf("expected %d bytes for %d vectors, found %d", want, count, len(raw)),
		}
	}
	if len(meta.IDMapping) != count {
		return nil, &domain.CorruptIndexError{
			Path:   path,
			Reason: fmt.Sprintf("id mapping holds %d entries for %d vectors", len(meta.IDMapping), count),
		}
	}

	index := NewFlatIndex(dim)
	r := bytes.NewReader(raw[header:])
	for i := 0; i < count; i++ {
		id := meta.IDMapping[i]
		if _, dup := index.byID[id]; dup {
			return nil, &domain.CorruptIndexError{Path: path, Reason: fmt.Sprintf("duplicate id %s in mapping", id)}
		}
		if _, ok := meta.Chunks[id]; !ok {
			return nil, &domain.CorruptIndexError{Path: path, Reason: fmt.Sprintf("no chunk record for indexed id %s", id)}
		}

		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, &domain.CorruptIndexError{Path: path, Reason: "truncated vector data", Err: err}
		}

		// Stored vectors are already normalized. Loading them verbatim keeps
		// a save/load/save cycle byte-identical.
		index.byID[id] = len(index.ids)
		index.ids = append(index.ids, id)
		index.vectors = append(index.vectors, vec)
	}

	return index, nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
