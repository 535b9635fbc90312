package hnswdb

import (
	"errors"
	"fmt"

	"github.com/lumenvec/hnswdb/hnsw"
)

// ErrEmptyVector is returned when Insert or Search is called with a
// zero-length vector.
var ErrEmptyVector = errors.New("hnswdb: empty vector")

// ErrDimensionMismatch indicates a vector or query of the wrong length.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("hnswdb: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidK indicates a negative k passed to Search. k == 0 is valid
// and returns an empty result set, per spec.md §8's boundary behavior.
type ErrInvalidK struct {
	K int
}

func (e *ErrInvalidK) Error() string {
	return fmt.Sprintf("hnswdb: invalid k: %d", e.K)
}

// ErrInvalidDimension indicates a configured dimension that does not
// match storage.Dim, the compile-time constant baked into the record
// layout.
type ErrInvalidDimension struct {
	Expected int
	Actual   int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("hnswdb: invalid dimension: expected %d, got %d", e.Expected, e.Actual)
}

// ErrIDOutOfRange indicates an identifier outside the configured range.
type ErrIDOutOfRange struct {
	ID uint32
}

func (e *ErrIDOutOfRange) Error() string {
	return fmt.Sprintf("hnswdb: identifier %d out of range", e.ID)
}

// translateError wraps a lower-layer error into one of this package's
// typed errors where a direct mapping exists, mirroring the teacher's
// errors.go translateError helper. Errors with no known mapping pass
// through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dimErr *hnsw.ErrDimensionMismatch
	if errors.As(err, &dimErr) {
		return &ErrDimensionMismatch{Expected: dimErr.Expected, Actual: dimErr.Actual}
	}

	var idErr *hnsw.ErrIDOutOfRange
	if errors.As(err, &idErr) {
		return &ErrIDOutOfRange{ID: idErr.ID}
	}

	if errors.Is(err, hnsw.ErrEmptyVector) {
		return ErrEmptyVector
	}

	return err
}
