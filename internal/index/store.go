package index

import (
	"sort"
	"sync"
)

// ResultStore holds the latest successful FileResult of every indexed file.
//
// Every mutation carries the generation of the parse that produced it. A
// mutation is applied only if its generation is newer than the last one
// applied for that file, so a slow parse of old text can never overwrite a
// newer result or resurrect a deleted file.
type ResultStore interface {
	// Upsert replaces the file's result. It reports whether gen was accepted.
	Upsert(file string, gen uint64, result *FileResult) bool
	// Delete removes the file. It reports whether gen was accepted.
	Delete(file string, gen uint64) bool

	Get(file string) (*FileResult, bool)
	// Files returns the indexed files in sorted order.
	Files() []string
	// Generation returns the last generation applied for file, including
	// deletions.
	Generation(file string) uint64
	Len() int
}

// Compile-time assertion: *MemResultStore satisfies ResultStore.
var _ ResultStore = (*MemResultStore)(nil)

// MemResultStore implements ResultStore using Go maps. Thread-safe via
// sync.RWMutex.
type MemResultStore struct {
	mu      sync.RWMutex
	results map[string]*FileResult
	gens    map[string]uint64 // survives Delete as a tombstone
}

// NewMemResultStore returns an initialized MemResultStore ready for use.
func NewMemResultStore() *MemResultStore {
	return &MemResultStore{
		results: make(map[string]*FileResult),
		gens:    make(map[string]uint64),
	}
}

// Upsert stores result for file if gen is newer than the stored generation.
func (m *MemResultStore) Upsert(file string, gen uint64, result *FileResult) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen <= m.gens[file] {
		return false
	}
	m.gens[file] = gen
	m.results[file] = result
	return true
}

// Delete removes file if gen is newer than the stored generation.
func (m *MemResultStore) Delete(file string, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen <= m.gens[file] {
		return false
	}
	m.gens[file] = gen
	delete(m.results, file)
	return true
}

// Get returns the stored result for file.
func (m *MemResultStore) Get(file string) (*FileResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[file]
	return r, ok
}

// Files returns the indexed file names, sorted.
func (m *MemResultStore) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.results))
	for f := range m.results {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Generation returns the last applied generation for file.
func (m *MemResultStore) Generation(file string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[file]
}

// Len returns the number of indexed files.
func (m *MemResultStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results)
}
