// Package smalisig renders Java method signatures as Smali method reference
// descriptors, the format used by Android bytecode tooling (baksmali, Frida,
// Xposed, jadx).
//
// # Descriptors
//
// A [TypeRef] is a primitive, an array or a class reference:
//
//	int                  -> I
//	long[][]             -> [[J
//	java.lang.String     -> Ljava/lang/String;
//	java.util.Map$Entry  -> Ljava/util/Map\$Entry;
//
// A [MethodDescriptor] adds the declaring class and name:
//
//	Lcom/example/Foo;->bar(I[Ljava/lang/String;)V
//
// The owner is written with '/' separators and is never escaped; class names
// inside the parameter list and return type escape '$' as "\$" unless the
// [Encoder] has RawDollar set. Constructors use the name [ConstructorName]
// and a void return.
//
// # Usage
//
//	d := smalisig.MethodDescriptor{
//		OwnerClass: "com.example.Foo",
//		MethodName: "bar",
//		Parameters: []smalisig.TypeRef{smalisig.Primitive(smalisig.Int)},
//		ReturnType: smalisig.Primitive(smalisig.Void),
//	}
//	s, err := smalisig.EncodeMethod(d) // "Lcom/example/Foo;->bar(I)V"
//
// [ParseMethod] and [ParseType] invert the encoding. [ParseJavaType] reads
// Java source spellings such as "byte[]" or "String...".
//
// Encoding is a pure function of its input; an [Encoder] value may be shared
// between goroutines.
//
// The index package stores descriptors for whole source trees and the
// cmd/smalisig command exposes both live and indexed lookups.
package smalisig
