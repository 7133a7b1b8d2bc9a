// Package javasrc extracts method signatures from Java source using
// tree-sitter. It stands in for an IDE language model: it knows the file's
// package, imports and declared types, and names everything else on a
// best-effort basis without a classpath.
package javasrc

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/jward/smalisig"
)

// File is the extraction result for one compilation unit.
type File struct {
	Package string
	Imports []Import
	// Types holds the binary names of all named member types, in
	// declaration order.
	Types   []string
	Methods []Method
	// HasErrors is set when tree-sitter recovered from syntax errors.
	// Extraction still runs on the recovered tree.
	HasErrors bool
}

// Import is one import declaration.
type Import struct {
	Path     string
	Static   bool
	OnDemand bool
}

// Method is a method, constructor or annotation element. Positions are
// 0-based; columns are byte offsets within the line.
type Method struct {
	Descriptor  smalisig.MethodDescriptor
	Constructor bool
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
}

// Contains reports whether (line, col) falls within the method's span.
func (m *Method) Contains(line, col int) bool {
	if line < m.StartLine || line > m.EndLine {
		return false
	}
	if line == m.StartLine && col < m.StartCol {
		return false
	}
	if line == m.EndLine && col > m.EndCol {
		return false
	}
	return true
}

// MethodAt returns the innermost method whose span contains (line, col), or
// nil when the position is outside every method.
func (f *File) MethodAt(line, col int) *Method {
	var best *Method
	for i := range f.Methods {
		m := &f.Methods[i]
		if !m.Contains(line, col) {
			continue
		}
		// Nested spans start later (or end earlier) than their enclosing one.
		if best == nil || m.StartLine > best.StartLine ||
			(m.StartLine == best.StartLine && m.StartCol > best.StartCol) {
			best = m
		}
	}
	return best
}

// Parse parses Java source and extracts every method it declares.
func Parse(ctx context.Context, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("javasrc: parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	x := newExtractor(src)
	x.file.HasErrors = root.HasError()
	x.readHeader(root)
	x.collectTypes(root, "", true)
	x.walk(root, &scope{kind: scopeFile})
	return x.file, nil
}
