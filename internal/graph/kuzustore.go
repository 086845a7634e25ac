//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/tfindex/internal/index"
)

var _ Store = (*KuzuStore)(nil)

// KuzuStore keeps the reference graph in KuzuDB so it can be queried with
// Cypher after export. It needs cgo for the go-kuzu driver.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// NewKuzuStore opens an in-memory database.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore opens or creates the database directory at dbPath. Its
// parent is created when missing; Kuzu creates the leaf itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database %s: %w", path, err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema ----------

type column struct{ name, typ string }

// nodeTables lists every node table; the first column is the primary key.
var nodeTables = []struct {
	label   string
	columns []column
}{
	{"File", []column{{"path", "STRING"}, {"module", "STRING"}, {"symbols", "INT64"}, {"refs", "INT64"}}},
	{"Symbol", []column{
		{"id", "STRING"}, {"name", "STRING"}, {"kind", "STRING"}, {"type", "STRING"},
		{"file_path", "STRING"}, {"line", "INT64"}, {"col", "INT64"},
	}},
	{"Cluster", []column{{"name", "STRING"}, {"cohesion_score", "DOUBLE"}}},
}

// relTables maps each edge kind to its relationship table.
var relTables = []struct {
	kind       EdgeKind
	table      string
	src, dst   string // node label
	srcK, dstK string // primary key column
}{
	{EdgeKindDefines, "DEFINES", "File", "Symbol", "path", "id"},
	{EdgeKindReferences, "REFERENCES", "File", "Symbol", "path", "id"},
	{EdgeKindDependsOn, "DEPENDS_ON", "File", "File", "path", "path"},
	{EdgeKindBelongs, "BELONGS_TO", "File", "Cluster", "path", "name"},
}

// InitSchema creates the node and relationship tables. It may be called again
// on an existing database.
func (s *KuzuStore) InitSchema(context.Context) error {
	var stmts []string
	for _, nt := range nodeTables {
		cols := make([]string, 0, len(nt.columns))
		for _, c := range nt.columns {
			cols = append(cols, c.name+" "+c.typ)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE NODE TABLE IF NOT EXISTS %s(%s, PRIMARY KEY(%s))",
			nt.label, strings.Join(cols, ", "), nt.columns[0].name))
	}
	for _, rt := range relTables {
		stmts = append(stmts, fmt.Sprintf("CREATE REL TABLE IF NOT EXISTS %s(FROM %s TO %s)", rt.table, rt.src, rt.dst))
	}
	for _, stmt := range stmts {
		if _, err := s.query(stmt, nil); err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
	}
	return nil
}

// ---------- Writes ----------

// create inserts one node. props keys are column names.
func (s *KuzuStore) create(label string, props map[string]any) error {
	var sets []string
	for _, nt := range nodeTables {
		if nt.label != label {
			continue
		}
		for _, c := range nt.columns {
			sets = append(sets, fmt.Sprintf("%s: $%s", c.name, c.name))
		}
	}
	_, err := s.query(fmt.Sprintf("CREATE (:%s {%s})", label, strings.Join(sets, ", ")), props)
	return err
}

func (s *KuzuStore) AddFile(_ context.Context, node FileNode) error {
	return s.create("File", map[string]any{
		"path":    node.Path,
		"module":  node.Module,
		"symbols": int64(node.Symbols),
		"refs":    int64(node.References),
	})
}

func (s *KuzuStore) AddSymbol(_ context.Context, node SymbolNode) error {
	return s.create("Symbol", map[string]any{
		"id":        node.ID,
		"name":      node.Name,
		"kind":      string(node.Kind),
		"type":      node.Type,
		"file_path": node.FilePath,
		"line":      int64(node.Line),
		"col":       int64(node.Column),
	})
}

func (s *KuzuStore) AddCluster(_ context.Context, node ClusterNode) error {
	return s.create("Cluster", map[string]any{
		"name":           node.Name,
		"cohesion_score": node.CohesionScore,
	})
}

// AddEdge links two existing nodes. Both endpoints must have been added.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	for _, rt := range relTables {
		if rt.kind != edge.Kind {
			continue
		}
		cypher := fmt.Sprintf("MATCH (a:%s {%s: $src}), (b:%s {%s: $dst}) CREATE (a)-[:%s]->(b)",
			rt.src, rt.srcK, rt.dst, rt.dstK, rt.table)
		_, err := s.query(cypher, map[string]any{"src": edge.SourceID, "dst": edge.TargetID})
		return err
	}
	return fmt.Errorf("kuzu: unsupported edge kind: %s", edge.Kind)
}

// ---------- Reads ----------

func (s *KuzuStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	rows, err := s.query("MATCH (f:File {path: $path}) RETURN f.path, f.module, f.symbols, f.refs",
		map[string]any{"path": path})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	r := rows[0]
	return &FileNode{Path: asString(r[0]), Module: asString(r[1]), Symbols: asInt(r[2]), References: asInt(r[3])}, nil
}

const symbolReturn = " RETURN s.id, s.name, s.kind, s.type, s.file_path, s.line, s.col"

func symbolFromRow(r []any) SymbolNode {
	return SymbolNode{
		ID:       asString(r[0]),
		Name:     asString(r[1]),
		Kind:     index.SymbolKind(asString(r[2])),
		Type:     asString(r[3]),
		FilePath: asString(r[4]),
		Line:     asInt(r[5]),
		Column:   asInt(r[6]),
	}
}

func (s *KuzuStore) GetSymbol(_ context.Context, id string) (*SymbolNode, error) {
	rows, err := s.query("MATCH (s:Symbol {id: $id})"+symbolReturn, map[string]any{"id": id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	sym := symbolFromRow(rows[0])
	return &sym, nil
}

// QuerySymbols returns symbols whose name contains query, ignoring case,
// ordered by ID. A limit <= 0 returns every match.
func (s *KuzuStore) QuerySymbols(_ context.Context, query string, limit int) ([]SymbolNode, error) {
	cypher := "MATCH (s:Symbol) WHERE lower(s.name) CONTAINS lower($q)" + symbolReturn + " ORDER BY s.id"
	params := map[string]any{"q": query}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]SymbolNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, symbolFromRow(r))
	}
	return out, nil
}

// GetClusters returns the clusters ordered by name, members ordered by path.
func (s *KuzuStore) GetClusters(context.Context) ([]ClusterNode, error) {
	rows, err := s.query(`MATCH (f:File)-[:BELONGS_TO]->(c:Cluster)
		RETURN c.name, c.cohesion_score, f.path ORDER BY c.name, f.path`, nil)
	if err != nil {
		return nil, err
	}
	out := []ClusterNode{}
	for _, r := range rows {
		name := asString(r[0])
		if n := len(out); n == 0 || out[n-1].Name != name {
			out = append(out, ClusterNode{Name: name, CohesionScore: asFloat(r[1])})
		}
		last := &out[len(out)-1]
		last.Members = append(last.Members, asString(r[2]))
	}
	return out, nil
}

func (s *KuzuStore) GetAllEdges(context.Context) ([]Edge, error) {
	edges := []Edge{}
	for _, rt := range relTables {
		rows, err := s.query(fmt.Sprintf("MATCH (a:%s)-[:%s]->(b:%s) RETURN a.%s, b.%s",
			rt.src, rt.table, rt.dst, rt.srcK, rt.dstK), nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			edges = append(edges, Edge{SourceID: asString(r[0]), TargetID: asString(r[1]), Kind: rt.kind})
		}
	}
	return edges, nil
}

// ---------- Traversal ----------

func (s *KuzuStore) GetDependencies(_ context.Context, file string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	return walkDependencies(file, maxDepth, s.neighbors(direction))
}

func (s *KuzuStore) AssessImpact(_ context.Context, changedFiles []string) (*ImpactResult, error) {
	total, err := s.count("MATCH (n:File) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	return assessImpact(changedFiles, total, s.neighbors(DirectionDownstream))
}

// neighbors lists files one DEPENDS_ON hop away, sorted.
func (s *KuzuStore) neighbors(direction Direction) neighborFunc {
	cypher := "MATCH (:File {path: $path})-[:DEPENDS_ON]->(n:File) RETURN DISTINCT n.path ORDER BY n.path"
	if direction == DirectionDownstream {
		cypher = "MATCH (n:File)-[:DEPENDS_ON]->(:File {path: $path}) RETURN DISTINCT n.path ORDER BY n.path"
	}
	return func(file string) ([]string, error) {
		rows, err := s.query(cypher, map[string]any{"path": file})
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, asString(r[0]))
		}
		return out, nil
	}
}

func (s *KuzuStore) Stats(context.Context) (*GraphStats, error) {
	var counts [3]int
	for i, label := range []string{"File", "Symbol", "Cluster"} {
		n, err := s.count(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", label))
		if err != nil {
			return nil, err
		}
		counts[i] = n
	}
	edges := 0
	for _, rt := range relTables {
		n, err := s.count(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", rt.table))
		if err != nil {
			return nil, err
		}
		edges += n
	}
	return &GraphStats{FileCount: counts[0], SymbolCount: counts[1], ClusterCount: counts[2], EdgeCount: edges}, nil
}

// ---------- Cypher plumbing ----------

// query runs cypher and returns its rows, each in column order. Statements
// with parameters go through a prepared statement.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var (
		res *kuzu.QueryResult
		err error
	)
	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		if stmt, err = s.conn.Prepare(cypher); err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single count(...) query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil || len(rows) == 0 || len(rows[0]) == 0 {
		return 0, err
	}
	return asInt(rows[0][0]), nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
