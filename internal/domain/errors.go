package domain

import (
	"errors"
	"fmt"
)

// ErrNotIndexed reports an operation that requires a built index. Query
// paths return empty results instead; this sentinel is for callers that
// need the distinction.
var ErrNotIndexed = errors.New("index not built")

// DimensionMismatchError reports a vector whose length does not match the
// index or provider dimension.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Want, e.Got)
}

// ProviderUnavailableError reports an unreachable embedding or reranking
// backend.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// CorruptIndexError reports persisted index state that cannot be loaded.
type CorruptIndexError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptIndexError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt index at %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt index at %s: %s", e.Path, e.Reason)
}

func (e *CorruptIndexError) Unwrap() error { return e.Err }
