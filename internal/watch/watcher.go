package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Target receives file changes. *index.Index satisfies it.
type Target interface {
	NotifyFileChanged(file string, text []byte)
	NotifyFileDeleted(file string)
}

// Options configures a Watcher.
type Options struct {
	// Delay is how long the watcher waits after the last event before it
	// delivers the accumulated changes.
	Delay time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// ReadFile defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)

	// OnFlush, when set, is called after each batch is delivered with the
	// files reported as changed and removed.
	OnFlush func(changed, removed []string)
}

// Watcher delivers debounced fsnotify events for matched files to a Target.
// File names passed to the Target are relative to the root with forward
// slashes, the same names Discover returns.
type Watcher struct {
	root    string
	matcher *Matcher
	target  Target
	opts    Options
	log     *slog.Logger

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	// pending is touched only by the event loop.
	pending map[string]struct{}

	mu    sync.Mutex
	known map[string]bool
}

// New creates a Watcher for root. Call Start to begin watching.
func New(root string, m *Matcher, target Target, opts Options) (*Watcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", root, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:    abs,
		matcher: m,
		target:  target,
		opts:    opts,
		log:     opts.Logger,
		fsw:     fsw,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]struct{}),
		known:   make(map[string]bool),
	}, nil
}

// Start adds watches for every directory under the root that is not
// excluded and starts the event loop. Files present at Start are assumed to
// be indexed already.
func (w *Watcher) Start() error {
	err := walk(w.root, w.root, w.matcher, w.addWatch, func(rel string) {
		w.mu.Lock()
		w.known[rel] = true
		w.mu.Unlock()
	})
	if err != nil {
		return err
	}

	w.log.Info("watch.start", "root", w.root, "files", len(w.Files()), "delay", w.opts.Delay)
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Close stops the event loop and releases the fsnotify watcher. Events not
// yet delivered are dropped.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		w.cancel()
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// Files returns the matched files the watcher knows about, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.known))
	for f := range w.known {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) addWatch(dir string) {
	if err := w.fsw.Add(dir); err != nil {
		w.log.Warn("watch.add", "dir", dir, "err", err)
	}
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.opts.Delay)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.handle(ev) {
				timer.Reset(w.opts.Delay)
				fire = timer.C
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch.error", "err", err)

		case <-fire:
			fire = nil
			w.flush()
		}
	}
}

// handle records ev and reports whether anything became pending.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	rel, err := relPath(w.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "../") {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.matcher.SkipDir(rel) {
				return false
			}
			// Files created before the watch was added produce no events of
			// their own.
			before := len(w.pending)
			_ = walk(w.root, ev.Name, w.matcher, w.addWatch, func(file string) {
				w.pending[file] = struct{}{}
			})
			return len(w.pending) > before
		}
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if !w.matcher.Match(rel) && !w.knowsUnder(rel) {
		return false
	}
	w.pending[rel] = struct{}{}
	return true
}

// knowsUnder reports whether rel is a known file or a directory holding one.
func (w *Watcher) knowsUnder(rel string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.known[rel] {
		return true
	}
	prefix := rel + "/"
	for f := range w.known {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

// flush delivers every pending path. The file system is read again so a
// burst of events collapses to the final state of each path.
func (w *Watcher) flush() {
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	sort.Strings(paths)

	var changed, removed []string
	for _, rel := range paths {
		text, err := w.opts.ReadFile(filepath.Join(w.root, filepath.FromSlash(rel)))
		switch {
		case err == nil:
			if !w.matcher.Match(rel) {
				continue
			}
			w.mu.Lock()
			w.known[rel] = true
			w.mu.Unlock()
			w.target.NotifyFileChanged(rel, text)
			changed = append(changed, rel)
		case errors.Is(err, fs.ErrNotExist):
			for _, f := range w.forget(rel) {
				w.target.NotifyFileDeleted(f)
				removed = append(removed, f)
			}
		default:
			w.log.Debug("watch.read", "file", rel, "err", err)
		}
	}

	w.log.Debug("watch.flush", "changed", len(changed), "removed", len(removed))
	if w.opts.OnFlush != nil && (len(changed) > 0 || len(removed) > 0) {
		w.opts.OnFlush(changed, removed)
	}
}

// forget drops rel and every known file under it, returning them sorted.
func (w *Watcher) forget(rel string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	prefix := rel + "/"
	for f := range w.known {
		if f == rel || strings.HasPrefix(f, prefix) {
			out = append(out, f)
			delete(w.known, f)
		}
	}
	sort.Strings(out)
	return out
}
