package smalisig

import "testing"

var benchDescriptor = MethodDescriptor{
	OwnerClass: "com.example.Outer$Inner",
	MethodName: "process",
	Parameters: []TypeRef{
		Primitive(Int),
		ArrayN(Primitive(Long), 2),
		Reference("java.util.Map$Entry"),
		ArrayOf(Reference("java.lang.String")),
	},
	ReturnType: Reference("java.util.List"),
}

func BenchmarkEncodeMethod(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeMethod(benchDescriptor); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseMethod(b *testing.B) {
	s, err := EncodeMethod(benchDescriptor)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseMethod(s); err != nil {
			b.Fatal(err)
		}
	}
}
