package state

import (
	"errors"
	"fmt"
)

// ErrEmptyEmbedding is returned by Update when the embedding has no elements.
// The message is part of the host-facing contract.
var ErrEmptyEmbedding = errors.New("Embedding must not be empty") //nolint:staticcheck

// DimensionMismatchError is returned by Update when an embedding's length
// differs from the dimension established by the first update.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("Embedding dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
