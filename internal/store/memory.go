package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-memory Store used by tests. Documents append per
// collection in insert order and receive sequential ids.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]interface{}
	nextID      int
	failWith    error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]interface{})}
}

// FailWith makes every subsequent Insert fail with err. Pass nil to clear.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Insert appends the document to the named collection.
func (m *Memory) Insert(ctx context.Context, collection string, doc interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return "", &Error{Op: "insert", Collection: collection, Err: m.failWith}
	}

	m.nextID++
	m.collections[collection] = append(m.collections[collection], doc)
	return fmt.Sprintf("mem-%d", m.nextID), nil
}

// Documents returns the documents inserted into a collection, in order.
func (m *Memory) Documents(collection string) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]interface{}, len(m.collections[collection]))
	copy(docs, m.collections[collection])
	return docs
}

// Collections returns the names of all collections that received documents.
func (m *Memory) Collections() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close is a no-op.
func (m *Memory) Close(ctx context.Context) error {
	return nil
}
