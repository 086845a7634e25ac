package graph

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore is the in-memory reference graph the query tools run on. Besides
// the raw edge list it keeps DEPENDS_ON adjacency in both directions so that
// traversals do not rescan every edge per hop.
type MemStore struct {
	mu       sync.RWMutex
	files    map[string]FileNode
	symbols  map[string]SymbolNode
	edges    []Edge
	clusters []ClusterNode

	// uses[a] holds the files a depends on; usedBy[b] the files depending on b.
	uses   map[string]map[string]struct{}
	usedBy map[string]map[string]struct{}
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		files:   make(map[string]FileNode),
		symbols: make(map[string]SymbolNode),
		uses:    make(map[string]map[string]struct{}),
		usedBy:  make(map[string]map[string]struct{}),
	}
}

func (m *MemStore) InitSchema(context.Context) error { return nil }

func (m *MemStore) AddFile(_ context.Context, node FileNode) error {
	m.mu.Lock()
	m.files[node.Path] = node
	m.mu.Unlock()
	return nil
}

func (m *MemStore) AddSymbol(_ context.Context, node SymbolNode) error {
	m.mu.Lock()
	m.symbols[node.ID] = node
	m.mu.Unlock()
	return nil
}

func (m *MemStore) AddCluster(_ context.Context, node ClusterNode) error {
	m.mu.Lock()
	m.clusters = append(m.clusters, node)
	m.mu.Unlock()
	return nil
}

// AddEdge records edge. DEPENDS_ON edges also update the adjacency sets.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, edge)
	if edge.Kind == EdgeKindDependsOn {
		link(m.uses, edge.SourceID, edge.TargetID)
		link(m.usedBy, edge.TargetID, edge.SourceID)
	}
	return nil
}

func link(adj map[string]map[string]struct{}, from, to string) {
	set, ok := adj[from]
	if !ok {
		set = make(map[string]struct{})
		adj[from] = set
	}
	set[to] = struct{}{}
}

// GetFile returns the file at path, or nil when it is not in the graph.
func (m *MemStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.files[path]; ok {
		return &f, nil
	}
	return nil, nil
}

// GetSymbol returns the symbol with id, or nil when it is not in the graph.
func (m *MemStore) GetSymbol(_ context.Context, id string) (*SymbolNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.symbols[id]; ok {
		return &s, nil
	}
	return nil, nil
}

// QuerySymbols returns symbols whose name contains query, ignoring case,
// ordered by ID. A limit <= 0 returns every match.
func (m *MemStore) QuerySymbols(_ context.Context, query string, limit int) ([]SymbolNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)
	var out []SymbolNode
	for _, id := range slices.Sorted(maps.Keys(m.symbols)) {
		sym := m.symbols[id]
		if !strings.Contains(strings.ToLower(sym.Name), needle) {
			continue
		}
		out = append(out, sym)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// GetDependencies returns the first path to every file within maxDepth
// DEPENDS_ON hops of file in the given direction.
func (m *MemStore) GetDependencies(_ context.Context, file string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	adj := m.uses
	if direction == DirectionDownstream {
		adj = m.usedBy
	}
	return walkDependencies(file, maxDepth, m.adjacent(adj))
}

// AssessImpact returns the files depending on any of changedFiles, directly
// and through other files.
func (m *MemStore) AssessImpact(_ context.Context, changedFiles []string) (*ImpactResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return assessImpact(changedFiles, len(m.files), m.adjacent(m.usedBy))
}

func (m *MemStore) adjacent(adj map[string]map[string]struct{}) neighborFunc {
	return func(file string) ([]string, error) {
		return sortedSet(adj[file]), nil
	}
}

// GetClusters returns the clusters in the order they were added.
func (m *MemStore) GetClusters(context.Context) ([]ClusterNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]ClusterNode, 0, len(m.clusters)), m.clusters...), nil
}

// GetAllEdges returns every edge in the order it was added.
func (m *MemStore) GetAllEdges(context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]Edge, 0, len(m.edges)), m.edges...), nil
}

func (m *MemStore) Stats(context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &GraphStats{
		FileCount:    len(m.files),
		SymbolCount:  len(m.symbols),
		ClusterCount: len(m.clusters),
		EdgeCount:    len(m.edges),
	}, nil
}

func (m *MemStore) Close() error { return nil }
