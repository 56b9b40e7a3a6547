package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Catalog errors.
var (
	ErrNotFound            = errors.New("launch not found")
	ErrUpstreamUnavailable = errors.New("catalog upstream unavailable")
)

// LookupError is a failed lookup for one position of a batch.
type LookupError struct {
	Index int
	ID    int
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("launch %d: %v", e.ID, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// BatchError reports every failed position of a GetByIDs call.
// The successful positions are still returned to the caller.
type BatchError struct {
	Failures []*LookupError
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d launch lookups failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// FailedIndexes returns the failed positions keyed by index.
func (e *BatchError) FailedIndexes() map[int]*LookupError {
	out := make(map[int]*LookupError, len(e.Failures))
	for _, f := range e.Failures {
		out[f.Index] = f
	}
	return out
}
