package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/risor-io/risor/object"

	"github.com/jward/smalisig"
	"github.com/jward/smalisig/internal/javasrc"
)

// makeEncodeTypeFn creates the "encode_type" host function.
//
// encode_type(spelling) → string, e.g. encode_type("java.lang.String[]") → "[Ljava/lang/String;"
func makeEncodeTypeFn(enc smalisig.Encoder) *object.Builtin {
	return object.NewBuiltin("encode_type", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("encode_type", 1, len(args))
		}
		spelling, err := toString(args[0])
		if err != nil {
			return object.Errorf("encode_type: %v", err)
		}
		t, err := smalisig.ParseJavaType(spelling)
		if err != nil {
			return object.Errorf("encode_type: %v", err)
		}
		s, err := enc.EncodeType(t)
		if err != nil {
			return object.Errorf("encode_type: %v", err)
		}
		return object.NewString(s)
	})
}

// makeEncodeMethodFn creates the "encode_method" host function.
//
// encode_method({owner, name, params, return, constructor}) → string
//
// A missing owner becomes UnknownClass and a missing return type void.
// constructor=true forces the name <init> and a void return.
func makeEncodeMethodFn(enc smalisig.Encoder) *object.Builtin {
	return object.NewBuiltin("encode_method", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("encode_method", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("encode_method: %v", err)
		}
		md, err := descriptorFromMap(m)
		if err != nil {
			return object.Errorf("encode_method: %v", err)
		}
		s, err := enc.EncodeMethod(md)
		if err != nil {
			return object.Errorf("encode_method: %v", err)
		}
		return object.NewString(s)
	})
}

func descriptorFromMap(m map[string]object.Object) (smalisig.MethodDescriptor, error) {
	md := smalisig.MethodDescriptor{
		OwnerClass: getStringDefault(m, "owner", smalisig.UnknownOwner),
		MethodName: getString(m, "name"),
		Parameters: []smalisig.TypeRef{},
	}
	if v, ok := m["params"]; ok {
		list, ok := v.(*object.List)
		if !ok {
			return md, fmt.Errorf("params must be a list, got %s", v.Type())
		}
		for i, item := range list.Value() {
			spelling, err := toString(item)
			if err != nil {
				return md, fmt.Errorf("params[%d]: %w", i, err)
			}
			t, err := smalisig.ParseJavaType(spelling)
			if err != nil {
				return md, fmt.Errorf("params[%d]: %w", i, err)
			}
			md.Parameters = append(md.Parameters, t)
		}
	}
	ret, err := smalisig.ParseJavaType(getStringDefault(m, "return", "void"))
	if err != nil {
		return md, fmt.Errorf("return: %w", err)
	}
	md.ReturnType = ret
	if getBool(m, "constructor") {
		md.MethodName = smalisig.ConstructorName
		md.ReturnType = smalisig.Primitive(smalisig.Void)
	}
	if md.MethodName == "" {
		return md, fmt.Errorf("name is required")
	}
	return md, nil
}

// makeDecodeMethodFn creates the "decode_method" host function.
//
// decode_method(descriptor) → {owner, name, params, return}
func makeDecodeMethodFn() *object.Builtin {
	return object.NewBuiltin("decode_method", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("decode_method", 1, len(args))
		}
		desc, err := toString(args[0])
		if err != nil {
			return object.Errorf("decode_method: %v", err)
		}
		md, err := smalisig.ParseMethod(desc)
		if err != nil {
			return object.Errorf("decode_method: %v", err)
		}
		params := make([]object.Object, len(md.Parameters))
		for i, p := range md.Parameters {
			params[i] = object.NewString(p.String())
		}
		return object.NewMap(map[string]object.Object{
			"owner":  object.NewString(md.OwnerClass),
			"name":   object.NewString(md.MethodName),
			"params": object.NewList(params),
			"return": object.NewString(md.ReturnType.String()),
		})
	})
}

// makeParseJavaFn creates the "parse_java" host function.
//
// parse_java(path) → list of method maps
func makeParseJavaFn(enc smalisig.Encoder) *object.Builtin {
	return object.NewBuiltin("parse_java", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("parse_java", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("parse_java: %v", err)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return object.Errorf("parse_java: reading %s: %v", path, err)
		}
		f, err := javasrc.Parse(ctx, src)
		if err != nil {
			return object.Errorf("parse_java: %v", err)
		}
		return javaMethodsToList(enc, f.Methods)
	})
}

// makeParseJavaSrcFn creates "parse_java_src", which accepts source text
// directly.
//
// parse_java_src(source) → list of method maps
func makeParseJavaSrcFn(enc smalisig.Encoder) *object.Builtin {
	return object.NewBuiltin("parse_java_src", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("parse_java_src", 1, len(args))
		}
		src, err := toString(args[0])
		if err != nil {
			return object.Errorf("parse_java_src: %v", err)
		}
		f, err := javasrc.Parse(ctx, []byte(src))
		if err != nil {
			return object.Errorf("parse_java_src: %v", err)
		}
		return javaMethodsToList(enc, f.Methods)
	})
}

// makeMethodAtFn creates the "method_at" host function. Lines and columns
// are 0-based.
//
// method_at(path, line, col) → method map or nil
func makeMethodAtFn(enc smalisig.Encoder) *object.Builtin {
	return object.NewBuiltin("method_at", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("method_at", 3, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("method_at: %v", err)
		}
		line, err := toInt64(args[1])
		if err != nil {
			return object.Errorf("method_at: line: %v", err)
		}
		col, err := toInt64(args[2])
		if err != nil {
			return object.Errorf("method_at: col: %v", err)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return object.Errorf("method_at: reading %s: %v", path, err)
		}
		f, err := javasrc.Parse(ctx, src)
		if err != nil {
			return object.Errorf("method_at: %v", err)
		}
		m := f.MethodAt(int(line), int(col))
		if m == nil {
			return object.Nil
		}
		mm, err := javaMethodToMap(enc, *m)
		if err != nil {
			return object.Errorf("method_at: %v", err)
		}
		return mm
	})
}

func javaMethodsToList(enc smalisig.Encoder, methods []javasrc.Method) object.Object {
	results := []object.Object{}
	for _, m := range methods {
		mm, err := javaMethodToMap(enc, m)
		if err != nil {
			return object.Errorf("encode %s: %v", m.Descriptor.MethodName, err)
		}
		results = append(results, mm)
	}
	return object.NewList(results)
}

func javaMethodToMap(enc smalisig.Encoder, m javasrc.Method) (object.Object, error) {
	desc, err := enc.EncodeMethod(m.Descriptor)
	if err != nil {
		return nil, err
	}
	params := make([]object.Object, len(m.Descriptor.Parameters))
	for i, p := range m.Descriptor.Parameters {
		params[i] = object.NewString(p.String())
	}
	return object.NewMap(map[string]object.Object{
		"owner":       object.NewString(m.Descriptor.OwnerClass),
		"name":        object.NewString(m.Descriptor.MethodName),
		"descriptor":  object.NewString(desc),
		"params":      object.NewList(params),
		"return":      object.NewString(m.Descriptor.ReturnType.String()),
		"constructor": object.NewBool(m.Constructor),
		"start_line":  object.NewInt(int64(m.StartLine)),
		"start_col":   object.NewInt(int64(m.StartCol)),
		"end_line":    object.NewInt(int64(m.EndLine)),
		"end_col":     object.NewInt(int64(m.EndCol)),
	}), nil
}

// makeEmitFn creates the "emit" host function. Each call adds one output
// line; strings are emitted verbatim, anything else in its Risor spelling.
//
// emit(value)
func makeEmitFn(out *emitter) *object.Builtin {
	return object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit", 1, len(args))
		}
		if s, ok := args[0].(*object.String); ok {
			out.add(s.Value())
		} else {
			out.add(args[0].Inspect())
		}
		return object.Nil
	})
}

// logObject provides log.info/warn/error/debug methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) {
	l.logger.Debug(msg, "source", "script")
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "script")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "script")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "script")
}
