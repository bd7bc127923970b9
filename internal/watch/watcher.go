// Package watch reloads manifests into a workspace when they change on disk.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/logging"
)

// DefaultDebounce is the quiet period before changes are reported
const DefaultDebounce = 100 * time.Millisecond

// ManifestPatterns select manifest files inside watched directories
var ManifestPatterns = []string{"*.yml", "*.yaml"}

// FileWatcher monitors manifest files and directories and reports changed
// paths in batches
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	files     map[string]bool
	dirs      map[string]bool
	patterns  []string
	onChange  func([]string) error
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewFileWatcher creates a watcher for paths. A path naming a directory
// covers every manifest inside it. A debounce of zero uses DefaultDebounce.
func NewFileWatcher(paths []string, debounce time.Duration, onChange func([]string) error, logger *zap.Logger) (*FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &FileWatcher{
		debouncer: NewDebouncer(debounce),
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		patterns:  ManifestPatterns,
		onChange:  onChange,
		logger:    logging.OrNop(logger),
		stopChan:  make(chan struct{}),
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			fw.dirs[abs] = true
		} else {
			fw.files[abs] = true
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.watcher = watcher

	fw.debouncer.SetCallback(func(files []string) {
		if err := fw.onChange(files); err != nil {
			fw.logger.Error("failed to handle manifest changes", zap.Strings("files", files), zap.Error(err))
		}
	})

	return fw, nil
}

// Start begins watching the file system
func (fw *FileWatcher) Start() error {
	for _, dir := range fw.directories() {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.logger.Debug("watching directory", zap.String("dir", dir))
	}

	fw.wg.Add(1)
	go fw.watch()

	return nil
}

// Stop stops the file watcher. Calling it again has no effect.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.stopChan)
		fw.wg.Wait()
		fw.debouncer.Stop()
		err = fw.watcher.Close()
	})
	return err
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Editors often save by renaming a temporary file over the
			// original, which shows up as Create on the watched name.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			path, err := filepath.Abs(event.Name)
			if err != nil || !fw.watches(path) {
				continue
			}
			fw.logger.Debug("manifest changed", zap.String("path", path), zap.String("op", event.Op.String()))
			fw.debouncer.Add(path)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// directories returns the directories that must be watched, sorted
func (fw *FileWatcher) directories() []string {
	set := make(map[string]bool)
	for dir := range fw.dirs {
		set[dir] = true
	}
	// fsnotify loses files that are replaced by rename, so files are watched
	// through their parent directory.
	for file := range fw.files {
		set[filepath.Dir(file)] = true
	}

	dirs := make([]string, 0, len(set))
	for dir := range set {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// watches reports whether an absolute path is one of the watched manifests
func (fw *FileWatcher) watches(path string) bool {
	if fw.files[path] {
		return true
	}
	if !fw.dirs[filepath.Dir(path)] {
		return false
	}
	return !fw.shouldIgnore(path) && fw.matchesPattern(path)
}

// shouldIgnore checks if a file in a watched directory should be ignored
func (fw *FileWatcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}

// matchesPattern checks if a file matches any of the manifest patterns
func (fw *FileWatcher) matchesPattern(path string) bool {
	if len(fw.patterns) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, pattern := range fw.patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add adds a file to the pending batch and restarts the delay
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}

	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with the accumulated files, sorted. The
// callback runs without the lock held.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 || d.stopped {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	sort.Strings(files)
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels any pending batch
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
