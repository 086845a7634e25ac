package graph

import (
	"context"
	"io"
)

// Store is the interface for the reference graph backend.
// Implementations: MemStore (queries from the live index), KuzuStore
// (export to a graph database).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddFile(ctx context.Context, node FileNode) error
	AddSymbol(ctx context.Context, node SymbolNode) error
	AddCluster(ctx context.Context, node ClusterNode) error
	AddEdge(ctx context.Context, edge Edge) error

	// Read operations.
	GetFile(ctx context.Context, path string) (*FileNode, error)
	GetSymbol(ctx context.Context, id string) (*SymbolNode, error)
	QuerySymbols(ctx context.Context, query string, limit int) ([]SymbolNode, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// Graph traversal over DEPENDS_ON edges between files.
	GetDependencies(ctx context.Context, file string, direction Direction, maxDepth int) ([]DependencyChain, error)
	AssessImpact(ctx context.Context, changedFiles []string) (*ImpactResult, error)
	GetClusters(ctx context.Context) ([]ClusterNode, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what does this file depend on?
	DirectionDownstream Direction = "downstream" // what depends on this file?
)

// ParseDirection maps a user supplied direction, defaulting to upstream.
func ParseDirection(s string) Direction {
	if Direction(s) == DirectionDownstream {
		return DirectionDownstream
	}
	return DirectionUpstream
}
