package index

import (
	"slices"
	"sort"
	"sync"
)

// Compile-time assertion: *DiagnosticCollection satisfies DiagnosticsSink.
var _ DiagnosticsSink = (*DiagnosticCollection)(nil)

// DiagnosticCollection is an in-memory DiagnosticsSink. OnChange, when set,
// is called after every Set or Clear with the file's new diagnostics.
type DiagnosticCollection struct {
	mu       sync.RWMutex
	byFile   map[string][]Diagnostic
	OnChange func(file string, diags []Diagnostic)
}

// NewDiagnosticCollection returns an empty collection.
func NewDiagnosticCollection() *DiagnosticCollection {
	return &DiagnosticCollection{byFile: make(map[string][]Diagnostic)}
}

// SetDiagnostics replaces the diagnostics of file.
func (c *DiagnosticCollection) SetDiagnostics(file string, diags []Diagnostic) {
	c.mu.Lock()
	prev, had := c.byFile[file]
	c.byFile[file] = slices.Clone(diags)
	c.mu.Unlock()

	if c.OnChange != nil && (!had || !slices.Equal(prev, diags)) {
		c.OnChange(file, diags)
	}
}

// ClearDiagnostics forgets file.
func (c *DiagnosticCollection) ClearDiagnostics(file string) {
	c.mu.Lock()
	_, had := c.byFile[file]
	delete(c.byFile, file)
	c.mu.Unlock()

	if c.OnChange != nil && had {
		c.OnChange(file, nil)
	}
}

// Get returns the diagnostics of file and whether the file is known.
func (c *DiagnosticCollection) Get(file string) ([]Diagnostic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byFile[file]
	return slices.Clone(d), ok
}

// Files returns every file with an entry, sorted.
func (c *DiagnosticCollection) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byFile))
	for f := range c.byFile {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
