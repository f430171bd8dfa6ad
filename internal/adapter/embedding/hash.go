package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder folds token hashes into a fixed-size L2-normalized vector.
// The same text always produces the same vector and texts sharing tokens
// land in shared components, which is enough for offline smoke runs and
// deterministic tests. It is not a semantic embedding.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashEmbedder{dim: dimension}
}

func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	// Task prefixes from instruction-tuned models carry no content here.
	text = strings.TrimPrefix(text, "query: ")
	text = strings.TrimPrefix(text, "passage: ")

	vec := make([]float32, e.dim)
	for _, token := range hashTokens(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()

		sign := float32(1)
		if sum&(1<<31) != 0 {
			sign = -1
		}
		vec[sum%uint32(e.dim)] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

func hashTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func (e *HashEmbedder) Dimension() int { return e.dim }

func (e *HashEmbedder) ModelID() string { return fmt.Sprintf("hash-%d", e.dim) }
