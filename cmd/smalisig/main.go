package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/jward/smalisig/index"
	"github.com/jward/smalisig/scripts"
)

var (
	flagDB        string
	flagFormat    string
	flagConfig    string
	flagRawDollar bool
	flagVerbose   bool
)

// Output streams, swapped by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// cfgExclude holds directory names from the config file's exclude list.
var cfgExclude []string

var logger = slog.New(slog.DiscardHandler)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "smalisig",
	Short:         "Smali method descriptors for Java source",
	Long:          "smalisig turns Java method declarations into Smali method references (Lpkg/Owner;->name(params)ret), live or from a SQLite index.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(stderr, flagVerbose)
		if err := applyConfigFile(cmd); err != nil {
			return err
		}
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .smalisig/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .smalisig.toml at the repo root)")
	rootCmd.PersistentFlags().BoolVar(&flagRawDollar, "raw-dollar", false, "leave '$' in class names unescaped")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(atCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(scriptCmd)
}

// newLogger returns a tint-backed logger on w. Verbose lowers the level to debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index the Java sources of a repository",
	Long:  "Parses .java files with tree-sitter and stores one row per method, with its Smali descriptor, in the SQLite database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dbDir, err)
	}

	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(stderr, "Cleared database: %s\n", dbPath)
	}

	engine, err := index.New(dbPath, engineOptions()...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	// Descriptors stored under other encoder settings are stale.
	if engine.SettingsChanged() {
		logger.Debug("encoder settings changed, resetting index", "db", dbPath)
		if err := engine.Reset(); err != nil {
			return fmt.Errorf("resetting index: %w", err)
		}
	}

	stats, err := engine.IndexDirectory(context.Background(), targetDir)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(stderr, "Indexed %s in %s (%d files, %d parsed, %d unchanged, %d removed, %d methods)\n",
		targetDir,
		time.Since(start).Round(time.Millisecond),
		stats.Files, stats.Indexed, stats.Unchanged, stats.Removed, stats.Methods,
	)
	fmt.Fprintf(stderr, "Database: %s\n", dbPath)
	return nil
}

func engineOptions() []index.Option {
	return []index.Option{
		index.WithLogger(logger),
		index.WithRawDollar(flagRawDollar),
		index.WithExclude(cfgExclude...),
		index.WithScriptsFS(scripts.FS),
	}
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".smalisig", "index.db")
}
