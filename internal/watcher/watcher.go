package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/gemindex/internal/index"
	"github.com/blackwell-systems/gemindex/internal/snapshots"
)

// Digester captures the current view digests. *snapshots.Manager
// implements it.
type Digester interface {
	LiveDigests(ctx context.Context) (snapshots.Digests, error)
}

// Change is emitted when at least one view differs from the previous
// capture.
type Change struct {
	At      time.Time
	Digests snapshots.Digests
	Changed []string
}

// Watcher re-captures the index views when the database changes.
type Watcher struct {
	digester Digester
	dbPath   string
	logger   *slog.Logger
	onChange func(Change)

	debounce       time.Duration
	interval       time.Duration
	retryInitial   time.Duration
	retryMaxElapse time.Duration

	fsWatcher *fsnotify.Watcher
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu   sync.Mutex
	last snapshots.Digests
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnChange registers the callback invoked for each Change. It runs on
// the watcher goroutine.
func WithOnChange(fn func(Change)) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithDebounce sets how long file events must be quiet before a capture.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithInterval enables periodic captures in addition to file events. It is
// the only trigger when no database file is watched (e.g. Postgres).
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithRetry sets the backoff used when the store is unavailable.
func WithRetry(initial, maxElapsed time.Duration) Option {
	return func(w *Watcher) {
		w.retryInitial = initial
		w.retryMaxElapse = maxElapsed
	}
}

// New creates a Watcher. dbPath is the SQLite database file to watch; pass
// an empty path to rely on WithInterval alone.
func New(d Digester, dbPath string, opts ...Option) (*Watcher, error) {
	if d == nil {
		return nil, fmt.Errorf("digester cannot be nil")
	}

	w := &Watcher{
		digester:       d,
		dbPath:         dbPath,
		logger:         slog.Default(),
		onChange:       func(Change) {},
		debounce:       250 * time.Millisecond,
		retryInitial:   500 * time.Millisecond,
		retryMaxElapse: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.dbPath == "" && w.interval <= 0 {
		return nil, fmt.Errorf("nothing to watch: no database file and no interval")
	}
	return w, nil
}

// Last returns the most recently captured digests.
func (w *Watcher) Last() snapshots.Digests {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Start captures the baseline digests and begins watching. It returns once
// the baseline is recorded.
func (w *Watcher) Start(ctx context.Context) error {
	baseline, err := w.capture(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture baseline: %w", err)
	}
	w.mu.Lock()
	w.last = baseline
	w.mu.Unlock()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.dbPath != "" {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		// Watch the directory: SQLite creates and removes the WAL and journal
		// files next to the database.
		if err := fsw.Add(filepath.Dir(w.dbPath)); err != nil {
			fsw.Close()
			return fmt.Errorf("failed to watch %s: %w", w.dbPath, err)
		}
		w.fsWatcher = fsw
		events, errs = fsw.Events, fsw.Errors
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx, events, errs)

	w.logger.Info("watching index", "db", w.dbPath, "interval", w.interval)
	return nil
}

// Stop halts the watcher and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	var err error
	if w.fsWatcher != nil {
		err = w.fsWatcher.Close()
	}
	w.wg.Wait()
	return err
}

func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	defer w.wg.Done()

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	debounce := time.NewTimer(w.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if w.relevant(event) {
				debounce.Reset(w.debounce)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn("file watcher error", "error", err)
		case <-debounce.C:
			w.refresh(ctx)
		case <-tick:
			w.refresh(ctx)
		}
	}
}

// relevant reports whether an event touches the database or its sidecar
// files.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(w.dbPath)
	switch filepath.Base(event.Name) {
	case base, base + "-wal", base + "-journal":
		return true
	}
	return false
}

// refresh captures the digests and emits a Change when they moved.
func (w *Watcher) refresh(ctx context.Context) {
	digests, err := w.capture(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("failed to capture index views", "error", err)
		}
		return
	}

	w.mu.Lock()
	changed := w.last.Changed(digests)
	w.last = digests
	w.mu.Unlock()

	if len(changed) == 0 {
		w.logger.Debug("index unchanged")
		return
	}

	w.logger.Info("index changed", "views", changed)
	w.onChange(Change{At: time.Now(), Digests: digests, Changed: changed})
}

// capture reads the digests, retrying while the store is unavailable.
func (w *Watcher) capture(ctx context.Context) (snapshots.Digests, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.retryInitial
	policy.MaxElapsedTime = w.retryMaxElapse
	policy.Reset()

	var digests snapshots.Digests
	op := func() error {
		d, err := w.digester.LiveDigests(ctx)
		if err == nil {
			digests = d
			return nil
		}
		if errors.Is(err, index.ErrDataUnavailable) && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		w.logger.Warn("index unavailable, retrying", "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		return snapshots.Digests{}, err
	}
	return digests, nil
}
