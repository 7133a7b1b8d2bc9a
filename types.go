package smalisig

import (
	"strconv"
	"strings"
)

// Kind identifies one of the nine primitive types. The zero value is not a
// valid kind.
type Kind uint8

const (
	Void Kind = iota + 1
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
)

// kindKeywords maps each kind to its Java keyword.
var kindKeywords = map[Kind]string{
	Void:    "void",
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

// String returns the Java keyword for k, or "kind(N)" for unknown kinds.
func (k Kind) String() string {
	if kw, ok := kindKeywords[k]; ok {
		return kw
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// KindFromKeyword returns the kind spelled by a Java primitive keyword.
func KindFromKeyword(keyword string) (Kind, bool) {
	for k, kw := range kindKeywords {
		if kw == keyword {
			return k, true
		}
	}
	return 0, false
}

// Form tags which variant a TypeRef holds.
type Form uint8

const (
	FormPrimitive Form = iota
	FormArray
	FormReference
)

// TypeRef is an already-resolved type: a primitive, an array of some element
// type, or a reference to a class by qualified name. Build values with
// Primitive, ArrayOf and Reference.
type TypeRef struct {
	Form Form
	Kind Kind     // FormPrimitive
	Elem *TypeRef // FormArray
	Name string   // FormReference, '.'-separated
}

// Primitive returns the primitive type of kind k.
func Primitive(k Kind) TypeRef {
	return TypeRef{Form: FormPrimitive, Kind: k}
}

// ArrayOf returns a one-dimensional array of elem.
func ArrayOf(elem TypeRef) TypeRef {
	return TypeRef{Form: FormArray, Elem: &elem}
}

// ArrayN wraps elem in n array dimensions.
func ArrayN(elem TypeRef, n int) TypeRef {
	for range n {
		elem = ArrayOf(elem)
	}
	return elem
}

// Reference returns a class type with the given qualified name.
func Reference(qualifiedName string) TypeRef {
	return TypeRef{Form: FormReference, Name: qualifiedName}
}

// String renders t in Java source spelling, e.g. "int[][]" or
// "java.lang.String".
func (t TypeRef) String() string {
	switch t.Form {
	case FormPrimitive:
		return t.Kind.String()
	case FormArray:
		if t.Elem == nil {
			return "?[]"
		}
		return t.Elem.String() + "[]"
	default:
		return t.Name
	}
}

// Equal reports whether t and o describe the same type.
func (t TypeRef) Equal(o TypeRef) bool {
	if t.Form != o.Form {
		return false
	}
	switch t.Form {
	case FormPrimitive:
		return t.Kind == o.Kind
	case FormArray:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	default:
		return t.Name == o.Name
	}
}

// MethodDescriptor is everything needed to render a method reference.
type MethodDescriptor struct {
	OwnerClass string // qualified, '.'-separated
	MethodName string
	Parameters []TypeRef
	ReturnType TypeRef
}

// Equal reports whether d and o describe the same method.
func (d MethodDescriptor) Equal(o MethodDescriptor) bool {
	if d.OwnerClass != o.OwnerClass || d.MethodName != o.MethodName {
		return false
	}
	if len(d.Parameters) != len(o.Parameters) {
		return false
	}
	for i := range d.Parameters {
		if !d.Parameters[i].Equal(o.Parameters[i]) {
			return false
		}
	}
	return d.ReturnType.Equal(o.ReturnType)
}

// UnknownOwner is substituted by callers for methods whose declaring class has
// no qualified name, such as members of anonymous classes.
const UnknownOwner = "UnknownClass"

// ConstructorName is the bytecode name of instance constructors.
const ConstructorName = "<init>"

// ParseJavaType parses a Java source spelling such as "int", "long[][]" or
// "java.util.Map". Varargs ("String...") count as one array dimension.
// Anything that is not a primitive keyword is taken as a qualified name.
func ParseJavaType(s string) (TypeRef, error) {
	orig := s
	s = strings.TrimSpace(s)
	dims := 0
	for {
		switch {
		case strings.HasSuffix(s, "[]"):
			s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
			dims++
			continue
		case strings.HasSuffix(s, "..."):
			s = strings.TrimSpace(strings.TrimSuffix(s, "..."))
			dims++
			continue
		}
		break
	}
	if s == "" {
		return TypeRef{}, &SpellingError{Input: orig}
	}
	if k, ok := KindFromKeyword(s); ok {
		if k == Void && dims > 0 {
			return TypeRef{}, &SpellingError{Input: orig}
		}
		return ArrayN(Primitive(k), dims), nil
	}
	return ArrayN(Reference(s), dims), nil
}

// SpellingError reports a Java type spelling that could not be parsed.
type SpellingError struct {
	Input string
}

func (e *SpellingError) Error() string {
	return "smalisig: invalid java type spelling " + strconv.Quote(e.Input)
}
