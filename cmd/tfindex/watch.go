package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/tfindex/internal/index"
	"github.com/dusk-indust/tfindex/internal/mcptools"
)

// runWatch keeps the index live and prints diagnostics whenever a file's
// diagnostics change, until interrupted.
func (a *app) runWatch() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := a.openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.diags.OnChange = func(file string, diags []index.Diagnostic) {
		if len(diags) == 0 {
			fmt.Fprintf(a.stdout, "%s: ok\n", file)
			return
		}
		a.printDiagnostics(diags)
	}

	if err := ws.scan(ctx); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	stats := ws.idx.Snapshot().Stats()
	a.log.Info("watch.ready", "root", ws.root, "files", stats.FileCount, "symbols", stats.SymbolCount)

	wt, err := ws.watcher(a, func(changed, removed []string) {
		a.log.Debug("watch.batch", "changed", len(changed), "removed", len(removed))
	})
	if err != nil {
		return err
	}
	defer wt.Close()

	<-ctx.Done()
	return nil
}

// runServe indexes the workspace and serves the MCP tools. The index stays
// live when indexing.liveIndexing is set.
func (a *app) runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := a.openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.scan(ctx); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if ws.cfg.Indexing.LiveIndexing {
		wt, err := ws.watcher(a, nil)
		if err != nil {
			return err
		}
		defer wt.Close()
	}

	server := mcptools.NewServer(mcptools.NewIndexService(ws.idx))
	if a.flags.HTTP != "" {
		a.log.Info("serve.http", "addr", a.flags.HTTP, "root", ws.root)
		return mcptools.RunHTTP(ctx, server, a.flags.HTTP)
	}
	a.log.Debug("serve.stdio", "root", ws.root)
	return mcptools.RunStdio(ctx, server)
}
