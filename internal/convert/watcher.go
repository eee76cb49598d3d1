package convert

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherClosed is returned when adding directories to a stopped
// Watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Watcher converts scenes that appear or change in watched directories.
// A scene is converted once no event has touched it for the debounce
// period. Conversions run one at a time on the Run goroutine, so a single
// import context is alive at any moment.
type Watcher struct {
	conv     *Converter
	log      *zap.Logger
	debounce time.Duration
	fs       *fsnotify.Watcher

	// OnResult, when set, is called after every conversion.
	OnResult func(Result, error)

	mu      sync.Mutex
	closed  bool
	pending *queue.Queue         // paths in arrival order
	touched map[string]time.Time // last event per pending path
}

// NewWatcher creates a Watcher feeding conv.
func NewWatcher(conv *Converter, debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		conv:     conv,
		log:      conv.log().Named("watch"),
		debounce: debounce,
		fs:       fs,
		pending:  queue.New(),
		touched:  make(map[string]time.Time),
	}, nil
}

// Add starts watching dir (not recursively).
func (w *Watcher) Add(dir string) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWatcherClosed
	}
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.log.Info("Watching directory", zap.String("dir", dir))
	return nil
}

// Pending returns the number of queued scenes.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending.Length()
}

// enqueue records an event for path. A path already queued keeps its
// place and only has its debounce restarted.
func (w *Watcher) enqueue(path string, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.touched[path]; !ok {
		w.pending.Add(path)
	}
	w.touched[path] = now
	w.conv.Metrics.queued(w.pending.Length())
}

// next pops the oldest queued path if it has settled.
func (w *Watcher) next(now time.Time) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending.Length() == 0 {
		return "", false
	}
	path := w.pending.Peek().(string)
	if now.Sub(w.touched[path]) < w.debounce {
		return "", false
	}
	w.pending.Remove()
	delete(w.touched, path)
	w.conv.Metrics.queued(w.pending.Length())
	return path, true
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !IsScene(ev.Name) {
		return
	}
	w.log.Debug("Scene changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
	w.enqueue(filepath.Clean(ev.Name), time.Now())
}

// drain converts every settled scene.
func (w *Watcher) drain(ctx context.Context) {
	for ctx.Err() == nil {
		path, ok := w.next(time.Now())
		if !ok {
			return
		}
		res, err := w.conv.Convert(ctx, path)
		if w.OnResult != nil {
			w.OnResult(res, err)
		}
	}
}

// Run processes events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	tick := max(w.debounce/2, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watch error", zap.Error(err))
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// Close stops watching. Queued scenes are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.fs.Close()
}
