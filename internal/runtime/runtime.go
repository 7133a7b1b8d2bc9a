package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/smalisig"
	"github.com/jward/smalisig/internal/store"
)

// Runtime embeds a Risor VM and exposes descriptor encoding, Java parsing
// and index lookups to batch-conversion scripts.
type Runtime struct {
	store      *store.Store
	encoder    smalisig.Encoder
	logger     *slog.Logger
	scriptsDir string
	fsys       fs.FS
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithEncoder sets the encoder used by encode_type, encode_method and
// parse_java.
func WithEncoder(enc smalisig.Encoder) RuntimeOption {
	return func(r *Runtime) {
		r.encoder = enc
	}
}

// WithLogger sets the logger behind the script-visible log object.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRuntime creates a Runtime wired to the given Store and scripts directory.
// The Store may be nil, in which case the index lookup globals are absent.
func NewRuntime(s *store.Store, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:      s,
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller. It returns the lines the
// script passed to emit, in order.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) ([]string, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) ([]string, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) ([]string, error) {
	out := &emitter{}
	globals := r.buildGlobals(out, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	r.logger.Debug("running script", "script", label)
	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return out.lines(), fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return out.lines(), nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on that filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(out *emitter, extra map[string]any) map[string]any {
	globals := map[string]any{
		"encode_type":    makeEncodeTypeFn(r.encoder),
		"encode_method":  makeEncodeMethodFn(r.encoder),
		"decode_method":  makeDecodeMethodFn(),
		"parse_java":     makeParseJavaFn(r.encoder),
		"parse_java_src": makeParseJavaSrcFn(r.encoder),
		"method_at":      makeMethodAtFn(r.encoder),
		"emit":           makeEmitFn(out),
		"log":            mustProxy(&logObject{logger: r.logger}),
	}

	// Index lookups need a Store.
	if r.store != nil {
		globals["methods_by_name"] = makeMethodsByNameFn(r.store)
		globals["methods_by_file"] = makeMethodsByFileFn(r.store)
		globals["methods_by_owner"] = makeMethodsByOwnerFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

// Strings converts a Go string slice into a Risor list, for passing
// command-line arguments as a global.
func Strings(ss []string) object.Object {
	items := make([]object.Object, len(ss))
	for i, s := range ss {
		items[i] = object.NewString(s)
	}
	return object.NewList(items)
}

// emitter collects script output. Scripts may emit from goroutines started
// with Risor's go statement.
type emitter struct {
	mu  sync.Mutex
	out []string
}

func (e *emitter) add(line string) {
	e.mu.Lock()
	e.out = append(e.out, line)
	e.mu.Unlock()
}

func (e *emitter) lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.out...)
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
