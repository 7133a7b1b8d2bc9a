package smalisig

import (
	"fmt"
	"strings"
)

// primitiveCodes is the exhaustive primitive-to-descriptor table.
var primitiveCodes = map[Kind]byte{
	Void:    'V',
	Boolean: 'Z',
	Byte:    'B',
	Char:    'C',
	Short:   'S',
	Int:     'I',
	Long:    'J',
	Float:   'F',
	Double:  'D',
}

// UnsupportedTypeError is returned when a TypeRef carries a primitive kind
// outside the nine defined kinds, or is otherwise not a valid variant.
type UnsupportedTypeError struct {
	Kind Kind
	Form Form
}

func (e *UnsupportedTypeError) Error() string {
	if e.Form != FormPrimitive {
		return fmt.Sprintf("smalisig: unsupported type form %d", e.Form)
	}
	return fmt.Sprintf("smalisig: unsupported primitive type: %s", e.Kind)
}

// Encoder renders descriptors. The zero value escapes '$' in reference types,
// which is what baksmali-style listings expect.
type Encoder struct {
	// RawDollar leaves '$' in reference types unescaped, producing plain
	// binary names.
	RawDollar bool
}

var defaultEncoder Encoder

// EncodeType returns the descriptor of t using the default Encoder.
func EncodeType(t TypeRef) (string, error) {
	return defaultEncoder.EncodeType(t)
}

// EncodeMethod returns the method reference descriptor of d using the default
// Encoder, e.g. "Lcom/example/Foo;->bar(IZ)V".
func EncodeMethod(d MethodDescriptor) (string, error) {
	return defaultEncoder.EncodeMethod(d)
}

// EncodeType returns the descriptor of t.
func (e Encoder) EncodeType(t TypeRef) (string, error) {
	var b strings.Builder
	if err := e.appendType(&b, t); err != nil {
		return "", err
	}
	return b.String(), nil
}

// EncodeMethod returns the method reference descriptor of d. The owner class
// is only slash-separated; callers must supply a non-empty owner.
func (e Encoder) EncodeMethod(d MethodDescriptor) (string, error) {
	var b strings.Builder
	b.WriteByte('L')
	b.WriteString(strings.ReplaceAll(d.OwnerClass, ".", "/"))
	b.WriteString(";->")
	b.WriteString(d.MethodName)
	b.WriteByte('(')
	for i, p := range d.Parameters {
		if err := e.appendType(&b, p); err != nil {
			return "", fmt.Errorf("parameter %d: %w", i, err)
		}
	}
	b.WriteByte(')')
	if err := e.appendType(&b, d.ReturnType); err != nil {
		return "", fmt.Errorf("return type: %w", err)
	}
	return b.String(), nil
}

func (e Encoder) appendType(b *strings.Builder, t TypeRef) error {
	// Arrays are unrolled iteratively so deep nesting costs no stack.
	for t.Form == FormArray {
		if t.Elem == nil {
			return &UnsupportedTypeError{Form: FormArray}
		}
		b.WriteByte('[')
		t = *t.Elem
	}
	switch t.Form {
	case FormPrimitive:
		code, ok := primitiveCodes[t.Kind]
		if !ok {
			return &UnsupportedTypeError{Kind: t.Kind}
		}
		b.WriteByte(code)
	case FormReference:
		b.WriteByte('L')
		e.appendClassName(b, t.Name)
		b.WriteByte(';')
	default:
		return &UnsupportedTypeError{Form: t.Form}
	}
	return nil
}

func (e Encoder) appendClassName(b *strings.Builder, name string) {
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '.':
			b.WriteByte('/')
		case '$':
			if !e.RawDollar {
				b.WriteByte('\\')
			}
			b.WriteByte('$')
		default:
			b.WriteByte(c)
		}
	}
}
