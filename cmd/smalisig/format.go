package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatMethodsText formats CLIMethod results as aligned columns.
func formatMethodsText(w io.Writer, methods []CLIMethod) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DESCRIPTOR\tFILE\tLINE")
	for _, m := range methods {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", m.Descriptor, m.File, m.StartLine)
	}
	tw.Flush()
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tPACKAGE\tLINES")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", f.ID, f.Path, f.Package, f.LineCount)
	}
	tw.Flush()
}

// formatDecodedText formats a decoded descriptor as "key: value" lines.
func formatDecodedText(w io.Writer, d CLIDecoded) {
	if d.Kind == "type" {
		fmt.Fprintf(w, "type: %s\n", d.Type)
		return
	}
	fmt.Fprintf(w, "owner: %s\n", d.Owner)
	fmt.Fprintf(w, "name: %s\n", d.Name)
	fmt.Fprintf(w, "params: %s\n", strings.Join(d.Params, ", "))
	fmt.Fprintf(w, "return: %s\n", d.Return)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(result CLIResult) error {
	w := stdout

	switch v := result.Results.(type) {
	case []CLIMethod:
		formatMethodsText(w, v)
	case CLIMethod:
		// A single method prints as its bare descriptor so it can be piped.
		fmt.Fprintln(w, v.Descriptor)
	case []CLIFile:
		formatFilesText(w, v)
	case CLIDecoded:
		formatDecodedText(w, v)
	case string:
		fmt.Fprintln(w, v)
	case []string:
		for _, line := range v {
			fmt.Fprintln(w, line)
		}
	case nil:
		// No output for nil results (e.g., at with no enclosing method).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIMethod:
		return len(r)
	case []CLIFile:
		return len(r)
	case []string:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// outputResult writes a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false) // keep <init> readable
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
