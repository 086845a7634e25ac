package graph

import "github.com/dusk-indust/tfindex/internal/index"

// --- Enums ---

// NodeKind classifies nodes in the reference graph.
type NodeKind string

const (
	NodeKindFile    NodeKind = "file"
	NodeKindSymbol  NodeKind = "symbol"
	NodeKindCluster NodeKind = "cluster"
)

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	EdgeKindDefines    EdgeKind = "DEFINES"    // File -> Symbol declared in it
	EdgeKindReferences EdgeKind = "REFERENCES" // File -> Symbol it references
	EdgeKindDependsOn  EdgeKind = "DEPENDS_ON" // File -> File declaring a referenced symbol
	EdgeKindBelongs    EdgeKind = "BELONGS"    // File -> Cluster
)

// --- Models ---

// FileNode represents an indexed configuration file.
type FileNode struct {
	Path       string `json:"path"`
	Module     string `json:"module"` // directory of the file, "." for the root module
	Symbols    int    `json:"symbols"`
	References int    `json:"references"`
}

// SymbolNode represents one declaration.
type SymbolNode struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Kind     index.SymbolKind `json:"kind"`
	Type     string           `json:"type,omitempty"`
	FilePath string           `json:"filePath"`
	Line     int              `json:"line"`
	Column   int              `json:"column"`
}

// ClusterNode represents a group of files connected by dependencies.
type ClusterNode struct {
	Name          string   `json:"name"`
	CohesionScore float64  `json:"cohesionScore"`
	Members       []string `json:"members"` // file paths
}

// Edge represents a relationship between two nodes.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
}

// GraphStats summarizes a reference graph.
type GraphStats struct {
	FileCount    int `json:"fileCount"`
	SymbolCount  int `json:"symbolCount"`
	ClusterCount int `json:"clusterCount"`
	EdgeCount    int `json:"edgeCount"`
}

// DependencyChain is an ordered sequence of files forming a dependency path.
type DependencyChain struct {
	Nodes []string `json:"nodes"` // file paths in order
	Depth int      `json:"depth"`
}

// ImpactResult describes the blast radius of changing a set of files.
type ImpactResult struct {
	DirectlyAffected     []string `json:"directlyAffected"`     // files referencing a changed file
	TransitivelyAffected []string `json:"transitivelyAffected"` // full dependent closure
	RiskScore            float64  `json:"riskScore"`            // 0.0-1.0, share of files affected
}

// SymbolID is the graph identifier of a declaration. Resources and data
// sources include their type so that same-named blocks stay distinct.
func SymbolID(s index.Symbol) string {
	id := s.File + "#" + string(s.Kind) + "."
	if s.Type != "" && (s.Kind == index.KindResource || s.Kind == index.KindData) {
		id += s.Type + "."
	}
	return id + s.Name
}

// NewSymbolNode converts an index symbol into a graph node.
func NewSymbolNode(s index.Symbol) SymbolNode {
	return SymbolNode{
		ID:       SymbolID(s),
		Name:     s.Name,
		Kind:     s.Kind,
		Type:     s.Type,
		FilePath: s.File,
		Line:     s.Range.Start.Line,
		Column:   s.Range.Start.Column,
	}
}
