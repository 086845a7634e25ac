package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultToolName is the name reported when the parser tool is missing.
const DefaultToolName = "terraform-index"

// Options configures an Index. The zero value is usable.
type Options struct {
	// Logger receives structured events. Defaults to slog.Default().
	Logger *slog.Logger

	// Diagnostics receives per-file diagnostics after every rebuild.
	Diagnostics DiagnosticsSink

	// Notifier receives the one-time missing tool advisory.
	Notifier Notifier

	// ToolName is passed to Notifier.MissingTool.
	ToolName string

	// Concurrency bounds parallel parses and workspace reads.
	// Defaults to runtime.NumCPU().
	Concurrency int

	// ReadFile loads file text during ScanWorkspace. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)

	// Store holds per-file results. Defaults to a new MemResultStore.
	Store ResultStore
}

// update is one message for the rebuild worker.
type update struct {
	file    string
	gen     uint64
	hash    uint64
	result  *FileResult
	delete  bool
	barrier bool
	reply   chan error // optional, buffered
}

// applied records which dispatched text is reflected in the store.
type applied struct {
	gen  uint64
	hash uint64
}

// Index keeps the symbol table and reference maps of a workspace up to date
// as files change. Parsing runs concurrently; all store mutations and
// rebuilds happen on a single worker goroutine, and every rebuild publishes
// an immutable Snapshot that queries read without locking.
type Index struct {
	parser Parser
	opts   Options
	log    *slog.Logger
	store  ResultStore
	snap   atomic.Pointer[Snapshot]

	updates chan update
	sem     chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup // parse goroutines
	done    chan struct{}  // closed when the worker exits

	mu      sync.Mutex
	closed  bool
	gens    map[string]uint64 // last dispatched generation per file
	applied map[string]applied
	pending int
	drained chan struct{} // closed when pending drops to zero

	missingOnce sync.Once
	rebuilds    atomic.Uint64
}

// New creates an Index backed by parser and starts its rebuild worker.
// Call Close to stop it.
func New(parser Parser, opts Options) *Index {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ToolName == "" {
		opts.ToolName = DefaultToolName
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	if opts.Store == nil {
		opts.Store = NewMemResultStore()
	}

	ctx, cancel := context.WithCancel(context.Background())
	idx := &Index{
		parser:  parser,
		opts:    opts,
		log:     opts.Logger,
		store:   opts.Store,
		updates: make(chan update, 64),
		sem:     make(chan struct{}, opts.Concurrency),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		gens:    make(map[string]uint64),
		applied: make(map[string]applied),
	}
	idx.snap.Store(buildSnapshot(opts.Store))

	go idx.run()
	return idx
}

// Snapshot returns the most recently published snapshot.
func (i *Index) Snapshot() *Snapshot {
	return i.snap.Load()
}

// Rebuilds returns how many rebuilds have been published.
func (i *Index) Rebuilds() uint64 {
	return i.rebuilds.Load()
}

// ---------- Inbound notifications ----------

// NotifyFileChanged schedules a re-parse of file. It returns immediately;
// the snapshot is updated once the parse completes.
func (i *Index) NotifyFileChanged(file string, text []byte) {
	if err := i.dispatch(file, text, nil); err != nil && !errors.Is(err, ErrClosed) {
		i.log.Warn("index.dispatch", "file", file, "err", err)
	}
}

// NotifyFileDeleted schedules removal of file from the index.
func (i *Index) NotifyFileDeleted(file string) {
	if err := i.remove(file, nil); err != nil && !errors.Is(err, ErrClosed) {
		i.log.Warn("index.remove", "file", file, "err", err)
	}
}

// Update parses text and returns once the result is visible to queries.
// Parse failures are returned and leave the index unchanged.
func (i *Index) Update(ctx context.Context, file string, text []byte) error {
	reply := make(chan error, 1)
	if err := i.dispatch(file, text, reply); err != nil {
		return err
	}
	return i.await(ctx, reply)
}

// Delete removes file and returns once the removal is visible to queries.
func (i *Index) Delete(ctx context.Context, file string) error {
	reply := make(chan error, 1)
	if err := i.remove(file, reply); err != nil {
		return err
	}
	return i.await(ctx, reply)
}

// ScanWorkspace reads and indexes files, returning once all of them have
// been applied. Unreadable and unparseable files are logged and skipped.
func (i *Index) ScanWorkspace(ctx context.Context, files []string) error {
	i.log.Info("index.scan.start", "files", len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Concurrency)
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := i.opts.ReadFile(file)
			if err != nil {
				i.log.Warn("index.scan.read", "file", file, "err", err)
				return nil
			}
			i.NotifyFileChanged(file, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := i.Flush(ctx); err != nil {
		return err
	}

	i.log.Info("index.scan.done", "indexed", len(i.Snapshot().Files()))
	return nil
}

// Flush waits until every parse dispatched so far has been applied.
func (i *Index) Flush(ctx context.Context) error {
	for {
		i.mu.Lock()
		if i.closed {
			i.mu.Unlock()
			return ErrClosed
		}
		drained := i.drained
		i.mu.Unlock()

		if drained == nil {
			break
		}
		select {
		case <-drained:
		case <-ctx.Done():
			return ctx.Err()
		case <-i.ctx.Done():
			return ErrClosed
		}
	}

	reply := make(chan error, 1)
	if err := i.enqueue(ctx, update{barrier: true, reply: reply}); err != nil {
		return err
	}
	return i.await(ctx, reply)
}

// Close stops the worker and waits for in-flight parses to finish. Results
// still in flight are discarded.
func (i *Index) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	i.mu.Unlock()

	i.cancel()
	i.wg.Wait()
	<-i.done
	return nil
}

// ---------- Dispatch ----------

// dispatch assigns the next generation for file and starts its parse.
// Text identical to the result already in the store is not parsed again.
func (i *Index) dispatch(file string, text []byte, reply chan error) error {
	sum := xxhash.Sum64(text)

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return ErrClosed
	}
	if a, ok := i.applied[file]; ok && a.gen == i.gens[file] && a.hash == sum {
		i.mu.Unlock()
		i.log.Debug("index.unchanged", "file", file)
		if reply != nil {
			reply <- nil
		}
		return nil
	}
	i.gens[file]++
	gen := i.gens[file]
	i.begin()
	i.wg.Add(1)
	i.mu.Unlock()

	go i.parse(file, gen, sum, text, reply)
	return nil
}

// remove assigns the next generation for file and queues its deletion.
func (i *Index) remove(file string, reply chan error) error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return ErrClosed
	}
	i.gens[file]++
	gen := i.gens[file]
	delete(i.applied, file)
	i.mu.Unlock()

	return i.enqueue(i.ctx, update{file: file, gen: gen, delete: true, reply: reply})
}

func (i *Index) parse(file string, gen, sum uint64, text []byte, reply chan error) {
	defer i.wg.Done()
	defer i.settle()

	select {
	case i.sem <- struct{}{}:
	case <-i.ctx.Done():
		return
	}
	result, err := i.parser.Parse(i.ctx, file, text)
	<-i.sem

	if err != nil {
		i.parseFailed(file, gen, err)
		if reply != nil {
			reply <- &IndexError{Op: "parse", File: file, Err: err}
		}
		return
	}
	if result == nil {
		result = &FileResult{}
	}
	result.normalize()

	u := update{file: file, gen: gen, hash: sum, result: result, reply: reply}
	if err := i.enqueue(i.ctx, u); err != nil && reply != nil {
		reply <- err
	}
}

func (i *Index) parseFailed(file string, gen uint64, err error) {
	switch {
	case errors.Is(err, ErrToolUnavailable):
		i.log.Warn("index.tool_unavailable", "tool", i.opts.ToolName, "err", err)
		i.missingOnce.Do(func() {
			if i.opts.Notifier != nil {
				i.opts.Notifier.MissingTool(i.opts.ToolName)
			}
		})
	case i.ctx.Err() != nil:
		// Shutting down.
	default:
		i.log.Warn("index.parse_failed", "file", file, "gen", gen, "err", err)
	}
}

func (i *Index) enqueue(ctx context.Context, u update) error {
	select {
	case i.updates <- u:
		return nil
	case <-i.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Index) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return ErrClosed
	}
}

// begin and settle track parses in flight for Flush. begin must be called
// with i.mu held.
func (i *Index) begin() {
	if i.pending == 0 {
		i.drained = make(chan struct{})
	}
	i.pending++
}

func (i *Index) settle() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending--
	if i.pending == 0 {
		close(i.drained)
		i.drained = nil
	}
}

// ---------- Rebuild worker ----------

func (i *Index) run() {
	defer close(i.done)
	for {
		select {
		case <-i.ctx.Done():
			return
		case u := <-i.updates:
			batch := []update{u}
		drain:
			for {
				select {
				case u := <-i.updates:
					batch = append(batch, u)
				default:
					break drain
				}
			}
			i.apply(batch)
		}
	}
}

// apply performs a batch of store mutations followed by at most one
// rebuild, then answers every waiting caller.
func (i *Index) apply(batch []update) {
	var (
		dirty   bool
		removed []string
	)
	for _, u := range batch {
		switch {
		case u.barrier:
		case u.delete:
			if i.store.Delete(u.file, u.gen) {
				dirty = true
				removed = append(removed, u.file)
			}
		default:
			if i.store.Upsert(u.file, u.gen, u.result) {
				dirty = true
				i.markApplied(u.file, u.gen, u.hash)
			} else {
				i.log.Debug("index.stale_result", "file", u.file, "gen", u.gen,
					"current", i.store.Generation(u.file))
			}
		}
	}

	if dirty {
		i.rebuild(removed)
	}
	for _, u := range batch {
		if u.reply != nil {
			u.reply <- nil
		}
	}
}

func (i *Index) markApplied(file string, gen, hash uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.applied[file] = applied{gen: gen, hash: hash}
}

// rebuild recomputes the snapshot from the store, publishes it and pushes
// diagnostics for every indexed file.
func (i *Index) rebuild(removed []string) {
	snap := buildSnapshot(i.store)
	i.snap.Store(snap)
	n := i.rebuilds.Add(1)

	stats := snap.Stats()
	i.log.Debug("index.rebuild",
		"rebuild", n,
		"files", stats.FileCount,
		"symbols", stats.SymbolCount,
		"references", stats.ReferenceCount,
		"diagnostics", stats.DiagnosticCount)

	sink := i.opts.Diagnostics
	if sink == nil {
		return
	}
	for _, file := range removed {
		if !snap.Has(file) {
			sink.ClearDiagnostics(file)
		}
	}
	for _, file := range snap.Files() {
		sink.SetDiagnostics(file, snap.Diagnostics(file))
	}
}
