package export

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/dusk-indust/tfindex/internal/graph"
)

// maxClusterLabel bounds subgraph titles.
const maxClusterLabel = 40

// GenerateMermaid renders the file dependency graph of store as a Mermaid
// flowchart. Each cluster becomes a subgraph of its member files, and every
// DEPENDS_ON edge an arrow from the referencing file to the file declaring
// the referenced symbol. Output is stable for a given store.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	clusters, err := store.GetClusters(ctx)
	if err != nil {
		return "", fmt.Errorf("get clusters: %w", err)
	}
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}

	d := &diagram{ids: make(map[string]string)}
	d.line("graph TD")

	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		d.line("  subgraph %s[%s]", d.node("cluster:"+c.Name), quote(truncate(c.Name, maxClusterLabel)))
		for _, m := range slices.Sorted(slices.Values(c.Members)) {
			d.line("    %s[%s]", d.node(m), quote(shortPath(m)))
		}
		d.line("  end")
	}

	deps := slices.DeleteFunc(edges, func(e graph.Edge) bool { return e.Kind != graph.EdgeKindDependsOn })
	slices.SortFunc(deps, func(a, b graph.Edge) int {
		return cmp.Or(cmp.Compare(a.SourceID, b.SourceID), cmp.Compare(a.TargetID, b.TargetID))
	})
	for _, e := range deps {
		d.line("  %s --> %s", d.node(e.SourceID), d.node(e.TargetID))
	}
	return d.String(), nil
}

// diagram accumulates Mermaid lines and hands out node IDs N0, N1, ... in
// first-use order.
type diagram struct {
	strings.Builder
	ids map[string]string
}

func (d *diagram) node(key string) string {
	id, ok := d.ids[key]
	if !ok {
		id = fmt.Sprintf("N%d", len(d.ids))
		d.ids[key] = id
	}
	return id
}

func (d *diagram) line(format string, args ...any) {
	fmt.Fprintf(d, format, args...)
	d.WriteByte('\n')
}

// quote wraps a label in double quotes, escaping embedded ones.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "#quot;") + `"`
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

// shortPath keeps the last two segments of p.
func shortPath(p string) string {
	parts := strings.Split(path.Clean(p), "/")
	if len(parts) <= 2 {
		return p
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
