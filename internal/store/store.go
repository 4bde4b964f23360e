package store

import (
	"context"
	"fmt"
)

// Store is the loader side of the pipeline. Insert persists one normalized
// document into the named collection and returns the stored identifier.
type Store interface {
	Insert(ctx context.Context, collection string, doc interface{}) (string, error)
	Close(ctx context.Context) error
}

// Error wraps a storage failure. Insert failures carry the target
// collection; connection-level failures leave it empty.
type Error struct {
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
