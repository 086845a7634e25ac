package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dusk-indust/tfindex/internal/config"
	"github.com/dusk-indust/tfindex/internal/index"
	"github.com/dusk-indust/tfindex/internal/parser"
	"github.com/dusk-indust/tfindex/internal/watch"
)

// workspace is an opened Terraform workspace: its settings, file matcher and
// live index.
type workspace struct {
	root    string
	cfg     *config.ProjectConfig
	matcher *watch.Matcher
	idx     *index.Index
	diags   *index.DiagnosticCollection
}

// missingToolNotifier prints the missing tool advisory once.
type missingToolNotifier struct {
	w    io.Writer
	once sync.Once
}

func (n *missingToolNotifier) MissingTool(tool string) {
	n.once.Do(func() {
		fmt.Fprintf(n.w, "Missing tool: %s (install it, set indexing.indexerPath, or use -parser hcl)\n", tool)
	})
}

// openWorkspace loads the workspace config, applies flag overrides and
// starts an index. The caller must close it.
func (a *app) openWorkspace() (*workspace, error) {
	root, err := filepath.Abs(a.flags.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if a.flags.Parser != "" {
		cfg.Indexing.Parser = a.flags.Parser
	}
	if a.flags.IndexerPath != "" {
		cfg.Indexing.IndexerPath = a.flags.IndexerPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Indexing.Enabled {
		return nil, fmt.Errorf("indexing is disabled in %s", cfg.Source)
	}

	matcher, err := watch.NewMatcher(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	var p index.Parser
	switch cfg.Indexing.Parser {
	case config.ParserExec:
		ep := parser.NewExecParser(cfg.Indexing.IndexerPath, root)
		ep.Supported = cfg.SupportedVersions
		p = ep
	default:
		p = parser.NewHCLParser()
	}

	diags := index.NewDiagnosticCollection()
	idx := index.New(p, index.Options{
		Logger:      a.log,
		Diagnostics: diags,
		Notifier:    &missingToolNotifier{w: a.stderr},
		ToolName:    cfg.Indexing.IndexerPath,
		Concurrency: cfg.Indexing.Concurrency,
		ReadFile: func(file string) ([]byte, error) {
			return os.ReadFile(filepath.Join(root, filepath.FromSlash(file)))
		},
	})

	a.log.Debug("workspace.open", "root", root, "parser", cfg.Indexing.Parser, "config", cfg.Source)
	return &workspace{root: root, cfg: cfg, matcher: matcher, idx: idx, diags: diags}, nil
}

// scan discovers and indexes every matched file.
func (w *workspace) scan(ctx context.Context) error {
	files, err := watch.Discover(w.root, w.matcher)
	if err != nil {
		return err
	}
	return w.idx.ScanWorkspace(ctx, files)
}

// watcher returns a started watcher feeding the index.
func (w *workspace) watcher(a *app, onFlush func(changed, removed []string)) (*watch.Watcher, error) {
	wt, err := watch.New(w.root, w.matcher, w.idx, watch.Options{
		Delay:   w.cfg.Delay(),
		Logger:  a.log,
		OnFlush: onFlush,
	})
	if err != nil {
		return nil, err
	}
	if err := wt.Start(); err != nil {
		_ = wt.Close()
		return nil, err
	}
	return wt, nil
}

func (w *workspace) Close() error {
	return w.idx.Close()
}

// withWorkspace opens and scans the workspace, runs fn and closes it.
func (a *app) withWorkspace(fn func(ctx context.Context, ws *workspace) error) error {
	ws, err := a.openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := context.Background()
	if err := ws.scan(ctx); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return fn(ctx, ws)
}
