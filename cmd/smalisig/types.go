package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIMethod is a JSON-friendly method representation.
type CLIMethod struct {
	ID          int64    `json:"id,omitempty"`
	Descriptor  string   `json:"descriptor"`
	Owner       string   `json:"owner"`
	Name        string   `json:"name"`
	Params      []string `json:"params"`
	Return      string   `json:"return"`
	Constructor bool     `json:"constructor,omitempty"`
	File        string   `json:"file,omitempty"`
	StartLine   int      `json:"start_line"`
	StartCol    int      `json:"start_col"`
	EndLine     int      `json:"end_line"`
	EndCol      int      `json:"end_col"`
}

// CLIDecoded is a decoded descriptor. Kind is "method" or "type"; type
// descriptors only fill Type.
type CLIDecoded struct {
	Kind   string   `json:"kind"`
	Owner  string   `json:"owner,omitempty"`
	Name   string   `json:"name,omitempty"`
	Params []string `json:"params,omitempty"`
	Return string   `json:"return,omitempty"`
	Type   string   `json:"type,omitempty"`
}

// CLIFile is a JSON-friendly file representation.
type CLIFile struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Package   string `json:"package"`
	LineCount int    `json:"line_count"`
	HasErrors bool   `json:"has_errors,omitempty"`
}
