package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/smalisig/index"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file.risor> [args...]",
	Short: "Run a Risor batch-conversion script",
	Long: `Runs a Risor script with descriptor helpers (encode_type, encode_method,
decode_method, parse_java, method_at) and index lookups (methods_by_name,
methods_by_file, methods_by_owner). Remaining arguments are available as the
list "args". Each emit(value) call produces one output line.

Built-in scripts run by name when no such file exists:
  dump <file.java>...   descriptors of every method in the files
  xposed <glob>...      XposedHelpers hook calls for matching indexed methods`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScript,
}

func runScript(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return outputError("script", fmt.Errorf("getting cwd: %w", err))
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError("script", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}

	engine, err := index.New(dbPath, engineOptions()...)
	if err != nil {
		return outputError("script", err)
	}
	defer engine.Close()

	lines, err := engine.RunScript(context.Background(), args[0], args[1:])
	if err != nil {
		// Lines emitted before the failure are still useful.
		if flagFormat == "text" {
			_ = outputResultText(CLIResult{Command: "script", Results: lines})
		}
		return outputError("script", err)
	}
	if lines == nil {
		lines = []string{}
	}
	return outputResult(CLIResult{Command: "script", Results: lines})
}
