package index

// symbolTable is the global view of every declaration in the store.
type symbolTable struct {
	byName map[string][]Symbol
	names  []string // distinct names in order of first appearance
	byFile map[string][]Symbol
	count  int
}

// buildSymbols derives the symbol table from the store. Files are visited
// in sorted order and declarations in category order, so the first symbol
// under a name is always the same for the same store contents.
func buildSymbols(store ResultStore) *symbolTable {
	t := &symbolTable{
		byName: make(map[string][]Symbol),
		byFile: make(map[string][]Symbol),
	}

	for _, file := range store.Files() {
		result, ok := store.Get(file)
		if !ok {
			continue
		}

		var symbols []Symbol
		for _, c := range result.categories() {
			for _, sec := range c.sections {
				symbols = append(symbols, Symbol{
					File:  file,
					Name:  sec.Name,
					Kind:  c.kind,
					Type:  sec.Type,
					Range: sec.Location.ToRange(),
				})
			}
		}

		for _, sym := range symbols {
			if _, seen := t.byName[sym.Name]; !seen {
				t.names = append(t.names, sym.Name)
			}
			t.byName[sym.Name] = append(t.byName[sym.Name], sym)
		}
		t.byFile[file] = symbols
		t.count += len(symbols)
	}
	return t
}

// has reports whether any symbol is called name.
func (t *symbolTable) has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// lookup returns the first symbol called name with the given kind. A
// non-empty typ narrows resources and data sources to that type; symbols
// recorded without a type still match.
func (t *symbolTable) lookup(name string, kind SymbolKind, typ string) (Symbol, bool) {
	for _, sym := range t.byName[name] {
		if sym.Kind == kind && (typ == "" || sym.Type == "" || sym.Type == typ) {
			return sym, true
		}
	}
	return Symbol{}, false
}
