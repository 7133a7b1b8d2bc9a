package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/smalisig/internal/store"
)

// Index lookup functions. Results are lists of maps with the same keys as
// parse_java, plus id and file_id.

// methods_by_name(pattern) → list; "*" in pattern matches any run of characters.
func makeMethodsByNameFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("methods_by_name", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("methods_by_name", 1, len(args))
		}
		pattern, err := toString(args[0])
		if err != nil {
			return object.Errorf("methods_by_name: %v", err)
		}
		rows, err := s.DB().QueryContext(ctx,
			"SELECT "+store.MethodCols+` FROM methods WHERE name LIKE ? ESCAPE '\' ORDER BY name, owner, id`,
			store.GlobToLike(pattern))
		if err != nil {
			return object.Errorf("methods_by_name: %v", err)
		}
		defer rows.Close()
		var methods []*store.Method
		for rows.Next() {
			m, err := store.ScanMethodRow(rows)
			if err != nil {
				return object.Errorf("methods_by_name: scan: %v", err)
			}
			methods = append(methods, m)
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("methods_by_name: %v", err)
		}
		return methodsToList(methods)
	})
}

// methods_by_file(path) → list in source order; empty when the file is not indexed.
func makeMethodsByFileFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("methods_by_file", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("methods_by_file", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("methods_by_file: %v", err)
		}
		f, err := s.FileByPath(path)
		if err != nil {
			return object.Errorf("methods_by_file: %v", err)
		}
		if f == nil {
			return methodsToList(nil)
		}
		methods, err := s.MethodsByFile(f.ID)
		if err != nil {
			return object.Errorf("methods_by_file: %v", err)
		}
		return methodsToList(methods)
	})
}

// methods_by_owner(owner) → list; owner is the dotted binary class name.
func makeMethodsByOwnerFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("methods_by_owner", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("methods_by_owner", 1, len(args))
		}
		owner, err := toString(args[0])
		if err != nil {
			return object.Errorf("methods_by_owner: %v", err)
		}
		methods, err := s.MethodsByOwner(owner)
		if err != nil {
			return object.Errorf("methods_by_owner: %v", err)
		}
		return methodsToList(methods)
	})
}

// methodsToList converts a slice of store.Method to a Risor list of maps.
func methodsToList(methods []*store.Method) object.Object {
	results := []object.Object{}
	for _, m := range methods {
		params := make([]object.Object, len(m.Params))
		for i, p := range m.Params {
			params[i] = object.NewString(p)
		}
		results = append(results, object.NewMap(map[string]object.Object{
			"id":          object.NewInt(m.ID),
			"file_id":     object.NewInt(m.FileID),
			"owner":       object.NewString(m.Owner),
			"name":        object.NewString(m.Name),
			"descriptor":  object.NewString(m.Descriptor),
			"params":      object.NewList(params),
			"return":      object.NewString(m.ReturnType),
			"constructor": object.NewBool(m.Constructor),
			"start_line":  object.NewInt(int64(m.StartLine)),
			"start_col":   object.NewInt(int64(m.StartCol)),
			"end_line":    object.NewInt(int64(m.EndLine)),
			"end_col":     object.NewInt(int64(m.EndCol)),
		}))
	}
	return object.NewList(results)
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getStringDefault(m map[string]object.Object, key, def string) string {
	v := getString(m, key)
	if v == "" {
		return def
	}
	return v
}

func getBool(m map[string]object.Object, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	if b, ok := v.(*object.Bool); ok {
		return b.Value()
	}
	return false
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
