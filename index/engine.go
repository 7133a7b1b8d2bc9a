package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jward/smalisig"
	"github.com/jward/smalisig/internal/javasrc"
	"github.com/jward/smalisig/internal/runtime"
	"github.com/jward/smalisig/internal/store"
)

// formatVersion is bumped whenever the stored row layout or the way
// descriptors are derived from source changes.
const formatVersion = "1"

const settingsHashKey = "settings_hash"

// Engine orchestrates file discovery, change detection, extraction and
// query access for the method index.
type Engine struct {
	store   *store.Store
	runtime *runtime.Runtime
	encoder smalisig.Encoder
	logger  *slog.Logger

	// exclude holds directory names skipped during discovery.
	exclude map[string]bool

	// useParallel enables the parallel extraction pipeline.
	useParallel bool

	// scriptsFS holds built-in scripts, used when RunScript's path is not
	// found on disk.
	scriptsFS fs.FS
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for progress and per-file warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRawDollar stores reference types with '$' left unescaped.
func WithRawDollar(raw bool) Option {
	return func(e *Engine) {
		e.encoder.RawDollar = raw
	}
}

// WithParallel controls parallel extraction. When true (default), IndexFiles
// uses a worker pool for parsing, with a single writer committing batches
// to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithScriptsFS supplies built-in scripts that RunScript falls back to when
// the requested path does not exist on disk.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithExclude adds directory names that discovery skips, in addition to
// hidden directories and the built-in build output directories.
func WithExclude(dirs ...string) Option {
	return func(e *Engine) {
		for _, d := range dirs {
			if d = strings.TrimSpace(d); d != "" {
				e.exclude[d] = true
			}
		}
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("index: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("index: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		logger:      slog.New(slog.DiscardHandler),
		exclude:     make(map[string]bool),
		useParallel: true,
	}
	for d := range skipDirs {
		e.exclude[d] = true
	}
	for _, opt := range opts {
		opt(e)
	}

	e.runtime = runtime.NewRuntime(s, "",
		runtime.WithEncoder(e.encoder),
		runtime.WithLogger(e.logger),
	)
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Encoder returns the encoder used for stored descriptors.
func (e *Engine) Encoder() smalisig.Encoder {
	return e.encoder
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store, encoder: e.encoder}
}

func (e *Engine) settingsHash() string {
	return store.SettingsHash(map[string]string{
		"format_version": formatVersion,
		"raw_dollar":     strconv.FormatBool(e.encoder.RawDollar),
	})
}

// SettingsChanged reports whether the stored descriptors were produced with
// different encoder settings. Returns true if the DB has no stored hash
// (first run) or if the hash doesn't match. When true, the caller should
// Reset and reindex.
func (e *Engine) SettingsChanged() bool {
	stored, err := e.store.GetMetadata(settingsHashKey)
	if err != nil || stored == "" {
		return true
	}
	return stored != e.settingsHash()
}

// Reset deletes every indexed file and method and records the current
// settings hash.
func (e *Engine) Reset() error {
	tx, err := e.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("index: reset: %w", err)
	}
	defer tx.Rollback()
	for _, q := range []string{"DELETE FROM methods", "DELETE FROM files"} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("index: reset: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: reset: %w", err)
	}
	return e.storeSettingsHash()
}

func (e *Engine) storeSettingsHash() error {
	return e.store.SetMetadata(settingsHashKey, e.settingsHash())
}

// IndexStats summarises one indexing run.
type IndexStats struct {
	Files     int // candidate files seen
	Indexed   int // files parsed and stored
	Unchanged int // files skipped because their hash matched
	Methods   int // method rows written
	Removed   int // stale file records dropped by IndexDirectory
	Duration  time.Duration
}

// IndexFiles indexes the given file paths. When WithParallel is enabled,
// uses a worker pool for concurrent extraction with batched SQLite writes.
// Otherwise falls back to the serial path.
//
// For each file:
//  1. Skip files that are not .java
//  2. Skip unchanged files (same content hash)
//  3. Delete stale data, insert the file record
//  4. Parse and store one row per method
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) (IndexStats, error) {
	start := time.Now()
	var (
		stats IndexStats
		err   error
	)
	if e.useParallel {
		stats, err = e.indexFilesParallel(ctx, paths)
	} else {
		stats, err = e.indexFilesSerial(ctx, paths)
	}
	stats.Duration = time.Since(start)
	if herr := e.storeSettingsHash(); herr != nil && err == nil {
		err = herr
	}
	e.logger.Debug("indexed files",
		"files", stats.Files, "indexed", stats.Indexed, "unchanged", stats.Unchanged,
		"methods", stats.Methods, "duration", stats.Duration)
	return stats, err
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) (IndexStats, error) {
	var stats IndexStats
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		item, skip, err := e.prepareFile(path, &stats)
		if err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		f, n, err := e.extract(ctx, e.store, item)
		if err != nil {
			_ = e.store.DeleteFile(item.fileID)
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		if err := e.store.UpdateFileInfo(item.fileID, f.Package, f.HasErrors); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		stats.Indexed++
		stats.Methods += n
	}
	if len(errs) > 0 {
		return stats, fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return stats, nil
}

// extract parses one file and writes its methods to ds. It returns the
// parse result and the number of rows written.
func (e *Engine) extract(ctx context.Context, ds store.DataStore, item workItem) (*javasrc.File, int, error) {
	f, err := javasrc.Parse(ctx, item.content)
	if err != nil {
		return nil, 0, err
	}
	if f.HasErrors {
		e.logger.Warn("syntax errors, extracting from recovered tree", "path", item.path)
	}
	n := 0
	for _, m := range f.Methods {
		row, err := e.methodRow(item.fileID, m)
		if err != nil {
			e.logger.Warn("skipping method", "path", item.path, "line", m.StartLine, "err", err)
			continue
		}
		if _, err := ds.InsertMethod(row); err != nil {
			return nil, n, fmt.Errorf("insert method: %w", err)
		}
		n++
	}
	return f, n, nil
}

func (e *Engine) methodRow(fileID int64, m javasrc.Method) (*store.Method, error) {
	desc, err := e.encoder.EncodeMethod(m.Descriptor)
	if err != nil {
		return nil, err
	}
	params := make([]string, len(m.Descriptor.Parameters))
	for i, p := range m.Descriptor.Parameters {
		params[i] = p.String()
	}
	return &store.Method{
		FileID:      fileID,
		Owner:       m.Descriptor.OwnerClass,
		Name:        m.Descriptor.MethodName,
		Descriptor:  desc,
		Params:      params,
		ReturnType:  m.Descriptor.ReturnType.String(),
		Constructor: m.Constructor,
		StartLine:   m.StartLine,
		StartCol:    m.StartCol,
		EndLine:     m.EndLine,
		EndCol:      m.EndCol,
	}, nil
}

// skipDirs are excluded from discovery by default.
var skipDirs = map[string]bool{
	"build":        true,
	"out":          true,
	"target":       true,
	"node_modules": true,
}

// IsJavaFile reports whether path names a Java source file.
func IsJavaFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".java")
}

// IndexDirectory walks root and indexes all .java files. If root is inside
// a git repository, uses git ls-files to respect .gitignore. Falls back to
// a filesystem walk (skipping hidden and excluded directories) if git is
// unavailable. Files indexed earlier under root that no longer exist are
// dropped from the index.
func (e *Engine) IndexDirectory(ctx context.Context, root string) (IndexStats, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return IndexStats{}, fmt.Errorf("index: resolve root: %w", err)
	}
	paths, err := e.gitListFiles(ctx, root)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking directory", "root", root, "err", err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return IndexStats{}, err
		}
	}
	stats, err := e.IndexFiles(ctx, paths)
	if err != nil {
		return stats, err
	}
	removed, err := e.store.DeleteFilesNotIn(root, paths)
	stats.Removed = removed
	if err != nil {
		return stats, fmt.Errorf("index: prune: %w", err)
	}
	return stats, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to .java sources.
func (e *Engine) gitListFiles(ctx context.Context, root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !IsJavaFile(line) || e.excluded(line) {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, err := os.Stat(absPath); err != nil {
			// Deleted in the working tree but still in the index.
			continue
		}
		paths = append(paths, absPath)
	}
	return paths, nil
}

// excluded reports whether any directory component of a relative path is
// in the exclude set.
func (e *Engine) excluded(rel string) bool {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	for _, p := range parts {
		if e.exclude[p] {
			return true
		}
	}
	return false
}

// walkListFiles discovers files by walking the filesystem, used as a fallback
// when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || e.exclude[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsJavaFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// RunScript runs a Risor batch script with the index attached and returns
// the lines it emitted. Imports inside the script resolve relative to its
// directory. A path that does not exist on disk is looked up by name
// (".risor" optional) in the WithScriptsFS filesystem.
func (e *Engine) RunScript(ctx context.Context, path string, args []string) ([]string, error) {
	if name, ok := e.builtinScript(path); ok {
		rt := runtime.NewRuntime(e.store, "",
			runtime.WithRuntimeFS(e.scriptsFS),
			runtime.WithEncoder(e.encoder),
			runtime.WithLogger(e.logger),
		)
		return rt.RunScript(ctx, name, scriptArgs(args))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("index: script path: %w", err)
	}
	rt := runtime.NewRuntime(e.store, filepath.Dir(abs),
		runtime.WithEncoder(e.encoder),
		runtime.WithLogger(e.logger),
	)
	return rt.RunScript(ctx, filepath.Base(abs), scriptArgs(args))
}

func (e *Engine) builtinScript(path string) (string, bool) {
	if e.scriptsFS == nil {
		return "", false
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return "", false
	}
	name := path
	if filepath.Ext(name) == "" {
		name += ".risor"
	}
	if _, err := fs.Stat(e.scriptsFS, name); err != nil {
		return "", false
	}
	return name, true
}

// RunSource runs inline Risor source with the index attached.
func (e *Engine) RunSource(ctx context.Context, src string, args []string) ([]string, error) {
	return e.runtime.RunSource(ctx, src, scriptArgs(args))
}

func scriptArgs(args []string) map[string]any {
	return map[string]any{"args": runtime.Strings(args)}
}
