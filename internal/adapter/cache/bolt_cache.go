package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"
)

// DBFileName is the embedding cache database kept beside a persisted index.
const DBFileName = "embeddings.db"

type storedEmbedding struct {
	Vector []float32 `json:"v"`
}

// BoltCache persists embedding vectors across runs. One bucket per model id,
// keyed the same way as the in-memory layer so Warm and Flush move entries
// without re-hashing. All failures after open are logged and swallowed; a
// broken cache file never fails a build.
type BoltCache struct {
	db    *bbolt.DB
	model string
	log   *slog.Logger
}

func NewBoltCache(path, modelID string, logger *slog.Logger) (*BoltCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(modelID))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache bucket for %s: %w", modelID, err)
	}

	return &BoltCache{db: db, model: modelID, log: logger}, nil
}

// Warm loads every persisted vector for the model into mem. Corrupted
// entries are skipped. Returns the number of vectors loaded.
func (b *BoltCache) Warm(mem *CachedEmbedder) int {
	loaded := 0
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(b.model))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			var stored storedEmbedding
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil
			}
			mem.seed(string(k), stored.Vector)
			loaded++
			return nil
		})
	})
	if err != nil {
		b.log.Warn("embed cache: warm failed", "path", b.db.Path(), "error", err)
	}
	if loaded > 0 {
		b.log.Debug("embed cache: warmed from disk", "model", b.model, "vectors", loaded)
	}
	return loaded
}

// Flush writes every in-memory vector back to disk. Returns the number
// written; write failures are logged, not returned.
func (b *BoltCache) Flush(mem *CachedEmbedder) int {
	entries := mem.snapshot()
	if len(entries) == 0 {
		return 0
	}

	written := 0
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(b.model))
		if bkt == nil {
			return fmt.Errorf("cache bucket %s not found", b.model)
		}
		for key, vec := range entries {
			data, err := json.Marshal(storedEmbedding{Vector: vec})
			if err != nil {
				return err
			}
			if err := bkt.Put([]byte(key), data); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		b.log.Warn("embed cache: flush failed", "path", b.db.Path(), "error", err)
		return 0
	}
	b.log.Debug("embed cache: flushed to disk", "model", b.model, "vectors", written)
	return written
}

func (b *BoltCache) Close() error {
	return b.db.Close()
}
