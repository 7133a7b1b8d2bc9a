package smalisig

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDescriptor is wrapped by every decoding failure.
var ErrMalformedDescriptor = errors.New("malformed descriptor")

// DecodeError locates a decoding failure within its input.
type DecodeError struct {
	Input  string
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("smalisig: %s at offset %d in %q: %s", ErrMalformedDescriptor, e.Offset, e.Input, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrMalformedDescriptor }

var codePrimitives = func() map[byte]Kind {
	m := make(map[byte]Kind, len(primitiveCodes))
	for k, c := range primitiveCodes {
		m[c] = k
	}
	return m
}()

// ParseType decodes a single type descriptor such as "[[I" or
// "Ljava/lang/String;". Escaped dollars ("\$") are unescaped.
func ParseType(s string) (TypeRef, error) {
	d := decoder{in: s}
	t, err := d.typ()
	if err != nil {
		return TypeRef{}, err
	}
	if d.pos != len(s) {
		return TypeRef{}, d.fail("trailing characters")
	}
	return t, nil
}

// ParseMethod decodes a method reference descriptor of the form
// "L<owner>;-><name>(<params>)<return>", the inverse of EncodeMethod.
func ParseMethod(s string) (MethodDescriptor, error) {
	d := decoder{in: s}
	if !d.consume('L') {
		return MethodDescriptor{}, d.fail("expected 'L'")
	}
	arrow := strings.Index(s, ";->")
	if arrow < 0 {
		return MethodDescriptor{}, d.fail("missing \";->\"")
	}
	owner := strings.ReplaceAll(s[1:arrow], "/", ".")
	d.pos = arrow + len(";->")

	open := strings.IndexByte(s[d.pos:], '(')
	if open < 0 {
		return MethodDescriptor{}, d.fail("missing '('")
	}
	name := s[d.pos : d.pos+open]
	d.pos += open + 1

	var params []TypeRef
	for {
		if d.pos >= len(s) {
			return MethodDescriptor{}, d.fail("unterminated parameter list")
		}
		if d.consume(')') {
			break
		}
		t, err := d.typ()
		if err != nil {
			return MethodDescriptor{}, err
		}
		params = append(params, t)
	}

	ret, err := d.typ()
	if err != nil {
		return MethodDescriptor{}, err
	}
	if d.pos != len(s) {
		return MethodDescriptor{}, d.fail("trailing characters")
	}
	return MethodDescriptor{
		OwnerClass: owner,
		MethodName: name,
		Parameters: params,
		ReturnType: ret,
	}, nil
}

type decoder struct {
	in  string
	pos int
}

func (d *decoder) fail(reason string) error {
	return &DecodeError{Input: d.in, Offset: d.pos, Reason: reason}
}

func (d *decoder) consume(c byte) bool {
	if d.pos < len(d.in) && d.in[d.pos] == c {
		d.pos++
		return true
	}
	return false
}

func (d *decoder) typ() (TypeRef, error) {
	dims := 0
	for d.consume('[') {
		dims++
	}
	if d.pos >= len(d.in) {
		return TypeRef{}, d.fail("unexpected end of input")
	}
	c := d.in[d.pos]
	if k, ok := codePrimitives[c]; ok {
		if k == Void && dims > 0 {
			return TypeRef{}, d.fail("array of void")
		}
		d.pos++
		return ArrayN(Primitive(k), dims), nil
	}
	if c != 'L' {
		return TypeRef{}, d.fail(fmt.Sprintf("unknown type code %q", c))
	}
	d.pos++

	var name strings.Builder
	for {
		if d.pos >= len(d.in) {
			return TypeRef{}, d.fail("unterminated class name")
		}
		c := d.in[d.pos]
		switch {
		case c == ';':
			d.pos++
			return ArrayN(Reference(name.String()), dims), nil
		case c == '/':
			name.WriteByte('.')
		case c == '\\' && d.pos+1 < len(d.in) && d.in[d.pos+1] == '$':
			name.WriteByte('$')
			d.pos++
		default:
			name.WriteByte(c)
		}
		d.pos++
	}
}
