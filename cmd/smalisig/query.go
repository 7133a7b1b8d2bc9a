package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/smalisig/index"
)

var (
	flagLimit  int
	flagOffset int
)

func init() {
	for _, c := range []*cobra.Command{searchCmd, filesCmd} {
		c.Flags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
		c.Flags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	}
}

// --- Helpers ---

// openEngine opens the index from the --db flag path (or default). The
// database must already exist.
func openEngine() (*index.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'smalisig index' first)", dbPath)
	}
	return index.New(dbPath, engineOptions()...)
}

// resolveFilePath converts a file argument to an absolute path.
// If the path is already absolute, it's returned as-is.
// Otherwise, it's resolved relative to the current working directory.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() index.Pagination {
	return index.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

func methodResultToCLI(mr index.MethodResult) CLIMethod {
	return CLIMethod{
		ID:          mr.ID,
		Descriptor:  mr.Descriptor,
		Owner:       mr.Owner,
		Name:        mr.Name,
		Params:      mr.Params,
		Return:      mr.ReturnType,
		Constructor: mr.Constructor,
		File:        mr.Location.File,
		StartLine:   mr.Location.StartLine,
		StartCol:    mr.Location.StartCol,
		EndLine:     mr.Location.EndLine,
		EndCol:      mr.Location.EndCol,
	}
}

func methodsToCLI(ms []index.MethodResult) []CLIMethod {
	out := make([]CLIMethod, len(ms))
	for i, m := range ms {
		out[i] = methodResultToCLI(m)
	}
	return out
}

// --- Commands ---

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search indexed methods by name (glob, * matches any run)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("search", err)
	}
	defer engine.Close()

	res, err := engine.Query().MethodsByName(args[0], buildPagination())
	if err != nil {
		return outputError("search", err)
	}
	return outputResult(CLIResult{
		Command:    "search",
		Results:    methodsToCLI(res.Items),
		TotalCount: &res.TotalCount,
	})
}

var ownerCmd = &cobra.Command{
	Use:   "owner <class>",
	Short: "List the indexed methods of a class (dotted or slash binary name)",
	Args:  cobra.ExactArgs(1),
	RunE:  runOwner,
}

func runOwner(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("owner", err)
	}
	defer engine.Close()

	ms, err := engine.Query().MethodsByOwner(args[0])
	if err != nil {
		return outputError("owner", err)
	}
	total := len(ms)
	return outputResult(CLIResult{Command: "owner", Results: methodsToCLI(ms), TotalCount: &total})
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <descriptor>",
	Short: "Find the source declarations of a method reference",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("lookup", err)
	}
	defer engine.Close()

	ms, err := engine.Query().MethodByDescriptor(args[0])
	if err != nil {
		return outputError("lookup", err)
	}
	total := len(ms)
	return outputResult(CLIResult{Command: "lookup", Results: methodsToCLI(ms), TotalCount: &total})
}

var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List the indexed methods of a file in source order",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("list", err)
	}
	defer engine.Close()

	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("list", err)
	}
	ms, err := engine.Query().MethodsInFile(file)
	if err != nil {
		return outputError("list", err)
	}
	total := len(ms)
	return outputResult(CLIResult{Command: "list", Results: methodsToCLI(ms), TotalCount: &total})
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("files", err)
	}
	defer engine.Close()

	res, err := engine.Query().Files(buildPagination())
	if err != nil {
		return outputError("files", err)
	}
	files := make([]CLIFile, len(res.Items))
	for i, f := range res.Items {
		files[i] = CLIFile{
			ID:        f.ID,
			Path:      f.Path,
			Package:   f.Package,
			LineCount: f.LineCount,
			HasErrors: f.HasErrors,
		}
	}
	return outputResult(CLIResult{Command: "files", Results: files, TotalCount: &res.TotalCount})
}
