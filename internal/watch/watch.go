// Package watch re-stamps the version header whenever the repository
// state changes. It wraps fsnotify with debouncing so a burst of git
// activity (a rebase, a branch switch) coalesces into a single stamping
// pass.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher monitors filesystem paths for changes and invokes a callback
// after the changes have settled for the debounce interval. Callbacks
// run one at a time on the watcher's own goroutine.
type Watcher struct {
	paths    []string
	onChange func()
	debounce time.Duration
	log      *zap.Logger
	watcher  *fsnotify.Watcher
	done     chan struct{}
	once     sync.Once
}

// New creates a Watcher over the given paths. Directories are watched
// recursively. Paths that do not exist are skipped with a warning, so a
// fresh repository without an index does not prevent watching the rest.
func New(paths []string, debounce time.Duration, onChange func(), log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: debounce,
		log:      log,
		done:     make(chan struct{}),
	}
}

// GitPaths returns the repository locations worth watching for provenance
// changes: HEAD for branch switches, the index for staging activity, and
// the refs for new commits. Watching all of .git would pull in the object
// store.
func GitPaths(worktree string) []string {
	gitDir := filepath.Join(worktree, ".git")
	return []string{
		filepath.Join(gitDir, "HEAD"),
		filepath.Join(gitDir, "index"),
		filepath.Join(gitDir, "packed-refs"),
		filepath.Join(gitDir, "refs"),
	}
}

// Start begins watching the configured paths for changes. It blocks until
// Stop is called or the event stream closes.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsw

	// Add paths to the watcher. For directories, recursively add
	// subdirectories as fsnotify does not watch recursively by default.
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			w.log.Warn("watch path missing, skipping", zap.String("path", p))
			continue
		}
		if info.IsDir() {
			if err := w.addRecursive(p); err != nil {
				w.log.Warn("failed to watch directory", zap.String("path", p), zap.Error(err))
			}
		} else {
			if err := fsw.Add(p); err != nil {
				w.log.Warn("failed to watch file", zap.String("path", p), zap.Error(err))
			}
		}
	}

	// Event processing loop with debouncing. The callback runs on this
	// goroutine, so passes never overlap: events arriving mid-pass queue up
	// and re-arm the timer once the pass returns.
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Only trigger on write, create, remove, and rename events.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// If a new directory is created, watch it recursively. Git
			// creates refs/heads subdirectories for namespaced branches.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}

			// Reset debounce timer.
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.onChange()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return fsw.Close()
		}
	}
}

// Stop signals the watcher to stop monitoring files.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
	})
}

// addRecursive adds a directory and all its subdirectories to the watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return err
			}
		}
		return nil
	})
}
