package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/keagan/reelsense/pkg/util"
	"github.com/rs/zerolog"
)

// VideoExtensions are the inbox file types picked up by default.
var VideoExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".m4v", ".avi"}

// Handler processes one settled file. It runs on a single goroutine, one file at a time.
type Handler func(ctx context.Context, path string)

// Watcher hands every new video in a directory to a Handler exactly once, after
// the file has stopped changing for the settle delay.
type Watcher struct {
	logger  zerolog.Logger
	dir     string
	settle  time.Duration
	exts    []string
	handler Handler

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]bool
	ready   chan string
}

// New creates a watcher over dir. exts defaults to VideoExtensions.
func New(logger zerolog.Logger, dir string, settle time.Duration, exts []string, handler Handler) *Watcher {
	if len(exts) == 0 {
		exts = VideoExtensions
	}
	return &Watcher{
		logger:  logger.With().Str("component", "watcher").Logger(),
		dir:     dir,
		settle:  settle,
		exts:    exts,
		handler: handler,
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]bool),
		ready:   make(chan string, 64),
	}
}

// Run watches until ctx is done. Files already in the directory are queued first.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.drain(ctx)
	}()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.schedule(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	w.logger.Info().Str("dir", w.dir).Dur("settle", w.settle).Msg("watching for videos")

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				w.schedule(ctx, ev.Name)
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				w.cancel(ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// schedule (re)starts the settle timer of path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !util.HasExtension(path, w.exts) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		if w.seen[path] {
			w.mu.Unlock()
			return
		}
		w.seen[path] = true
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.ready:
			if !util.FileExists(path) {
				w.logger.Debug().Str("file", path).Msg("file vanished before processing")
				continue
			}
			w.logger.Info().Str("file", path).Msg("processing new video")
			w.handler(ctx, path)
		}
	}
}
