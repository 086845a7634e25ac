package index

import "strings"

// --- Enums ---

// SymbolKind classifies the blocks that declare names.
type SymbolKind string

const (
	KindVariable SymbolKind = "variable"
	KindResource SymbolKind = "resource"
	KindData     SymbolKind = "data"
	KindModule   SymbolKind = "module"
	KindOutput   SymbolKind = "output"
	KindProvider SymbolKind = "provider"
	KindUnknown  SymbolKind = "unknown"
)

// AllKinds lists every kind a declaration can have, in table order.
var AllKinds = []SymbolKind{KindVariable, KindProvider, KindResource, KindData, KindModule, KindOutput}

// ParseSymbolKind maps an external type string onto a SymbolKind. Matching
// is case-insensitive; anything unrecognised becomes KindUnknown.
func ParseSymbolKind(s string) SymbolKind {
	switch strings.ToLower(s) {
	case "variable":
		return KindVariable
	case "resource":
		return KindResource
	case "data":
		return KindData
	case "module":
		return KindModule
	case "output":
		return KindOutput
	case "provider":
		return KindProvider
	}
	return KindUnknown
}

// Severity grades a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic sources.
const (
	SourceParser = "parser"
	SourceIndex  = "index"
)

// MsgCannotFindReference is reported for identifiers that exist in the
// symbol table but not with the kind the reference asks for.
const MsgCannotFindReference = "cannot find reference"

// --- Models ---

// Symbol is a named declaration at a specific location.
type Symbol struct {
	File  string     `json:"file"`
	Name  string     `json:"name"`
	Kind  SymbolKind `json:"kind"`
	Type  string     `json:"type,omitempty"`
	Range Range      `json:"range"`
}

// Location returns the symbol's identity for consumers.
func (s Symbol) Location() FileRange {
	return FileRange{File: s.File, Range: s.Range}
}

// Matches reports whether the symbol's kind is one of kinds. An empty list
// matches every kind.
func (s Symbol) Matches(kinds []SymbolKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if s.Kind == k {
			return true
		}
	}
	return false
}

// ResolvedReference links a use site to the symbol it resolved to.
type ResolvedReference struct {
	Source   FileRange `json:"source"`
	TargetID string    `json:"targetId"`
	Target   FileRange `json:"target"`

	// Identifier is the exact span of the bare name inside Source. It is
	// only set when the parser reported identifier positions.
	Identifier    Range `json:"identifier"`
	HasIdentifier bool  `json:"hasIdentifier"`
}

// Diagnostic is a user-visible problem attached to a file.
type Diagnostic struct {
	File     string   `json:"file"`
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Source   string   `json:"source"`
}

// Stats summarises a snapshot.
type Stats struct {
	FileCount       int `json:"fileCount"`
	SymbolCount     int `json:"symbolCount"`
	ReferenceCount  int `json:"referenceCount"`
	DiagnosticCount int `json:"diagnosticCount"`
}
