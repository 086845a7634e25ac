package index

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// jsonParser treats file text as the external tool's JSON output.
var jsonParser = ParserFunc(func(_ context.Context, _ string, text []byte) (*FileResult, error) {
	return DecodeResult(text, nil)
})

func loc(file string, line, col int) Location {
	return Location{Filename: file, Line: line, Column: col}
}

func section(name string, l Location) Section {
	return Section{Name: name, Location: l}
}

func ref(name, typ string, locs ...Location) *Reference {
	return &Reference{Name: name, Type: typ, Locations: locs}
}

// encode renders r the way the external tool would.
func encode(t *testing.T, r *FileResult) []byte {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	return data
}

// storeOf builds a store holding results, one generation each.
func storeOf(results map[string]*FileResult) *MemResultStore {
	s := NewMemResultStore()
	for file, r := range results {
		r.normalize()
		s.Upsert(file, 1, r)
	}
	return s
}

// collect drains a symbol sequence.
func collect(seq func(func(Symbol) bool)) []Symbol {
	var out []Symbol
	for s := range seq {
		out = append(out, s)
	}
	return out
}

// newTestIndex starts an Index and closes it when the test finishes.
func newTestIndex(t *testing.T, p Parser, opts Options) *Index {
	t.Helper()
	idx := New(p, opts)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}
