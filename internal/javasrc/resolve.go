package javasrc

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/smalisig"
)

const objectClass = "java.lang.Object"

var typeNodes = map[string]bool{
	"integral_type":          true,
	"floating_point_type":    true,
	"boolean_type":           true,
	"void_type":              true,
	"type_identifier":        true,
	"scoped_type_identifier": true,
	"generic_type":           true,
	"array_type":             true,
	"annotated_type":         true,
}

// javaLang lists the java.lang types that are visible without an import.
var javaLang = map[string]bool{
	"AutoCloseable": true, "Boolean": true, "Byte": true, "CharSequence": true,
	"Character": true, "Class": true, "ClassLoader": true, "Cloneable": true,
	"Comparable": true, "Deprecated": true, "Double": true, "Enum": true,
	"Error": true, "Exception": true, "Float": true, "FunctionalInterface": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
	"IndexOutOfBoundsException": true, "Integer": true, "InterruptedException": true,
	"Iterable": true, "Long": true, "Math": true, "NullPointerException": true,
	"Number": true, "Object": true, "Override": true, "Process": true,
	"Record": true, "Runnable": true, "Runtime": true, "RuntimeException": true,
	"SafeVarargs": true, "Short": true, "StackTraceElement": true,
	"String": true, "StringBuffer": true, "StringBuilder": true,
	"SuppressWarnings": true, "System": true, "Thread": true, "ThreadLocal": true,
	"Throwable": true, "UnsupportedOperationException": true, "Void": true,
}

// resolveType converts a type node into a TypeRef. Generic arguments are
// dropped and type variables replaced by their erasure.
func (x *extractor) resolveType(n *sitter.Node, sc *scope) smalisig.TypeRef {
	if n == nil {
		return smalisig.Primitive(smalisig.Void)
	}
	switch n.Type() {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		if k, ok := smalisig.KindFromKeyword(x.text(n)); ok {
			return smalisig.Primitive(k)
		}
		return smalisig.Reference(x.text(n))
	case "type_identifier":
		return x.resolveSimple(x.text(n), sc)
	case "scoped_type_identifier", "generic_type":
		return x.resolveSegments(x.segments(n, nil), sc)
	case "array_type":
		elem := x.resolveType(n.ChildByFieldName("element"), sc)
		return smalisig.ArrayN(elem, countDims(n.ChildByFieldName("dimensions")))
	case "annotated_type":
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			if c := n.NamedChild(i); typeNodes[c.Type()] {
				return x.resolveType(c, sc)
			}
		}
	}
	return smalisig.Reference(strings.TrimSpace(x.text(n)))
}

// segments flattens a possibly generic, possibly scoped type name into its
// identifier parts, e.g. Map.Entry<K, V> -> [Map Entry].
func (x *extractor) segments(n *sitter.Node, out []string) []string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "type_identifier":
			out = append(out, x.text(c))
		case "scoped_type_identifier", "generic_type":
			out = x.segments(c, out)
		}
	}
	return out
}

func (x *extractor) resolveSimple(name string, sc *scope) smalisig.TypeRef {
	if t, ok := sc.lookupTypeVar(name); ok {
		return t
	}
	if bin, ok := x.lookupClass(name); ok {
		return smalisig.Reference(bin)
	}
	return smalisig.Reference(x.qualify(name))
}

func (x *extractor) resolveSegments(segs []string, sc *scope) smalisig.TypeRef {
	switch len(segs) {
	case 0:
		return smalisig.Reference(objectClass)
	case 1:
		return x.resolveSimple(segs[0], sc)
	}
	nested := "$" + strings.Join(segs[1:], "$")
	if bin, ok := x.lookupClass(segs[0]); ok {
		return smalisig.Reference(bin + nested)
	}
	// An unknown capitalised head is a class, placed in the file's package
	// like an unknown simple name. Anything else is a package path.
	if r, _ := utf8.DecodeRuneInString(segs[0]); unicode.IsUpper(r) {
		return smalisig.Reference(x.qualify(segs[0]) + nested)
	}
	return smalisig.Reference(binaryFromDotted(strings.Join(segs, ".")))
}

// lookupClass finds a simple class name among the file's own types, its
// single-type imports and java.lang.
func (x *extractor) lookupClass(name string) (string, bool) {
	if bin, ok := x.local[name]; ok {
		return bin, true
	}
	if bin, ok := x.imports[name]; ok {
		return bin, true
	}
	if javaLang[name] {
		return "java.lang." + name, true
	}
	return "", false
}

// qualify places a simple name in the file's package.
func (x *extractor) qualify(name string) string {
	if x.file.Package == "" {
		return name
	}
	return x.file.Package + "." + name
}

// binaryFromDotted turns a source-level qualified name into a binary name by
// treating every segment after the first capitalised one as a nested type:
// java.util.Map.Entry -> java.util.Map$Entry.
func binaryFromDotted(path string) string {
	parts := strings.Split(path, ".")
	for i, p := range parts {
		r, _ := utf8.DecodeRuneInString(p)
		if unicode.IsUpper(r) {
			if i == len(parts)-1 {
				return path
			}
			return strings.Join(parts[:i+1], ".") + "$" + strings.Join(parts[i+1:], "$")
		}
	}
	return path
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
