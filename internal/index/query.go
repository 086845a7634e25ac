package index

import "iter"

// The query methods below read the current snapshot. Callers issuing several
// related queries should take one Snapshot and query it directly so that all
// answers come from the same rebuild.

// FindDefinition is Snapshot().FindDefinition.
func (i *Index) FindDefinition(file string, pos Pos) (FileRange, bool) {
	return i.Snapshot().FindDefinition(file, pos)
}

// FindReferences is Snapshot().FindReferences.
func (i *Index) FindReferences(targetID string) []FileRange {
	return i.Snapshot().FindReferences(targetID)
}

// DocumentSymbols is Snapshot().DocumentSymbols.
func (i *Index) DocumentSymbols(file string) []Symbol {
	return i.Snapshot().DocumentSymbols(file)
}

// Symbols is Snapshot().Symbols over the snapshot current at call time.
func (i *Index) Symbols(pattern string, kinds ...SymbolKind) iter.Seq[Symbol] {
	return i.Snapshot().Symbols(pattern, kinds...)
}

// Rename is Snapshot().Rename.
func (i *Index) Rename(targetID string, prefixLen int) (RenamePlan, bool) {
	return i.Snapshot().Rename(targetID, prefixLen)
}

// Diagnostics is Snapshot().Diagnostics.
func (i *Index) Diagnostics(file string) []Diagnostic {
	return i.Snapshot().Diagnostics(file)
}

// Complete is Snapshot().Complete.
func (i *Index) Complete(prefix string, kinds ...SymbolKind) []Symbol {
	return i.Snapshot().Complete(prefix, kinds...)
}
