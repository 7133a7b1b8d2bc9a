package smalisig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want TypeRef
	}{
		{"I", Primitive(Int)},
		{"V", Primitive(Void)},
		{"[[I", ArrayN(Primitive(Int), 2)},
		{"Ljava/lang/String;", Reference("java.lang.String")},
		{`La/B\$Inner;`, Reference("a.B$Inner")},
		{"La/B$Inner;", Reference("a.B$Inner")},
		{"[[[La/B;", ArrayN(Reference("a.B"), 3)},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s want %s", tt.in, got, tt.want)
	}
}

func TestParseType_Malformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "[", "Q", "Ljava/lang/String", "[V", "II", "L"} {
		_, err := ParseType(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrMalformedDescriptor), in)

		var de *DecodeError
		require.ErrorAs(t, err, &de, in)
		assert.Equal(t, in, de.Input)
	}
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	got, err := ParseMethod("Lcom/example/Foo;->baz([[I)Ljava/lang/String;")
	require.NoError(t, err)
	assert.Equal(t, "com.example.Foo", got.OwnerClass)
	assert.Equal(t, "baz", got.MethodName)
	require.Len(t, got.Parameters, 1)
	assert.Equal(t, "int[][]", got.Parameters[0].String())
	assert.Equal(t, "java.lang.String", got.ReturnType.String())
}

func TestParseMethod_Malformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"com/Foo;->m()V",
		"Lcom/Foo;m()V",
		"Lcom/Foo;->m)V",
		"Lcom/Foo;->m(I",
		"Lcom/Foo;->m(I)",
		"Lcom/Foo;->m(Q)V",
		"Lcom/Foo;->m()VV",
	} {
		_, err := ParseMethod(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, ErrMalformedDescriptor, in)
	}
}

// Encoding is injective: decoding any encoded descriptor yields the input.
func TestEncodeMethod_RoundTrip(t *testing.T) {
	t.Parallel()

	types := []TypeRef{
		Primitive(Boolean), Primitive(Byte), Primitive(Char), Primitive(Short),
		Primitive(Int), Primitive(Long), Primitive(Float), Primitive(Double),
		Reference("java.lang.String"), Reference("a.B$Inner"), Reference("X"),
		ArrayN(Primitive(Int), 2), ArrayOf(Reference("a.b.C$D$E")),
	}
	returns := append([]TypeRef{Primitive(Void)}, types...)
	owners := []string{"com.example.Foo", "a.B$Inner", UnknownOwner, "Top"}
	names := []string{"m", ConstructorName, "access$000", "run"}

	var inputs []MethodDescriptor
	for _, owner := range owners {
		for _, name := range names {
			for i, ret := range returns {
				params := types[:i%len(types)]
				inputs = append(inputs, MethodDescriptor{
					OwnerClass: owner,
					MethodName: name,
					Parameters: params,
					ReturnType: ret,
				})
			}
		}
	}

	seen := make(map[string]MethodDescriptor, len(inputs))
	for _, d := range inputs {
		enc, err := EncodeMethod(d)
		require.NoError(t, err)

		dec, err := ParseMethod(enc)
		require.NoError(t, err, enc)
		assert.True(t, d.Equal(dec), "round trip of %s", enc)

		if prev, ok := seen[enc]; ok {
			assert.True(t, prev.Equal(d), "collision on %s", enc)
		}
		seen[enc] = d
	}
}

func TestRawDollar_RoundTrip(t *testing.T) {
	t.Parallel()

	enc := Encoder{RawDollar: true}
	d := MethodDescriptor{
		OwnerClass: "a.B",
		MethodName: "m",
		Parameters: []TypeRef{Reference("a.B$C")},
		ReturnType: Primitive(Void),
	}
	s, err := enc.EncodeMethod(d)
	require.NoError(t, err)
	assert.Equal(t, "La/B;->m(La/B$C;)V", s)

	got, err := ParseMethod(s)
	require.NoError(t, err)
	assert.True(t, d.Equal(got))
}
