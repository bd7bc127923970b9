package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/logging"
	"github.com/conduit-lang/typesystem/internal/manifest"
	"github.com/conduit-lang/typesystem/internal/project"
)

// IncrementalLoader keeps a workspace in step with a set of manifest files.
// It remembers which assembly each file produced so that renamed assemblies
// and deleted files are removed from the workspace. Each assembly belongs to
// exactly one file.
type IncrementalLoader struct {
	loader    *manifest.Loader
	workspace *project.Workspace
	logger    *zap.Logger

	mu         sync.Mutex
	assemblies map[string]string // file -> assembly
}

// ReloadResult describes one reload
type ReloadResult struct {
	ChangedFiles []string
	Loaded       []string
	Removed      []string
	Errors       []error
	Duration     time.Duration
}

// Success reports whether every changed file was applied
func (r *ReloadResult) Success() bool { return len(r.Errors) == 0 }

// NewIncrementalLoader creates a loader that updates ws
func NewIncrementalLoader(ws *project.Workspace, logger *zap.Logger) *IncrementalLoader {
	logger = logging.OrNop(logger)
	return &IncrementalLoader{
		loader:     manifest.NewLoader(logger),
		workspace:  ws,
		logger:     logger,
		assemblies: make(map[string]string),
	}
}

// FullLoad loads every manifest in paths, expanding directories. It is used
// before watching starts.
func (il *IncrementalLoader) FullLoad(ctx context.Context, paths []string) (*ReloadResult, error) {
	files, err := ExpandManifests(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no manifests found in %v", paths)
	}

	start := time.Now()
	contents, err := il.loader.LoadFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	il.mu.Lock()
	defer il.mu.Unlock()

	result := &ReloadResult{ChangedFiles: files}
	var errs manifest.ErrorList
	for i, c := range contents {
		if err := il.install(files[i], c, result); err != nil {
			result.Errors = append(result.Errors, err)
			errs = append(errs, err)
		}
	}
	result.Duration = time.Since(start)
	if len(errs) > 0 {
		return result, errs
	}
	return result, nil
}

// Reload applies a batch of changed files. Files that no longer exist drop
// their assembly; files that fail to build leave the previous version in
// place and are reported in the result.
func (il *IncrementalLoader) Reload(changedFiles []string) (*ReloadResult, error) {
	start := time.Now()
	result := &ReloadResult{ChangedFiles: changedFiles}

	il.mu.Lock()
	defer il.mu.Unlock()

	for _, file := range changedFiles {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			if assembly, ok := il.assemblies[file]; ok {
				delete(il.assemblies, file)
				if il.workspace.Remove(assembly) {
					result.Removed = append(result.Removed, assembly)
				}
			}
			continue
		}

		content, err := il.loader.LoadFile(file)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if err := il.install(file, content, result); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	result.Duration = time.Since(start)
	if !result.Success() {
		return result, fmt.Errorf("reload failed with %d error(s)", len(result.Errors))
	}
	return result, nil
}

// install replaces the assembly built from file. An assembly already
// provided by another file is rejected and nothing changes. mu must be held.
func (il *IncrementalLoader) install(file string, content *project.Content, result *ReloadResult) *manifest.ManifestError {
	for other, assembly := range il.assemblies {
		if other != file && assembly == content.Assembly() {
			return manifest.NewDuplicateAssemblyError(assembly, file, other)
		}
	}
	if previous, ok := il.assemblies[file]; ok && previous != content.Assembly() {
		if il.workspace.Remove(previous) {
			result.Removed = append(result.Removed, previous)
		}
	}
	il.assemblies[file] = content.Assembly()
	il.workspace.Replace(content)
	result.Loaded = append(result.Loaded, content.Assembly())
	return nil
}

// Files returns the tracked manifest files, sorted
func (il *IncrementalLoader) Files() []string {
	il.mu.Lock()
	defer il.mu.Unlock()

	files := make([]string, 0, len(il.assemblies))
	for f := range il.assemblies {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// ExpandManifests replaces each directory in paths with the manifests it
// contains. Files are returned as absolute paths, sorted and without
// duplicates.
func ExpandManifests(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) error {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		fw := &FileWatcher{patterns: ManifestPatterns}
		for _, e := range entries {
			path := filepath.Join(p, e.Name())
			if e.IsDir() || fw.shouldIgnore(path) || !fw.matchesPattern(path) {
				continue
			}
			if err := add(path); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
