// Package index keeps a SQLite index of Smali method descriptors for a Java
// source tree.
//
// # Pipeline
//
// For each .java file, [Engine.IndexFiles] hashes the content, skips files
// that have not changed since the last run, parses the rest with
// tree-sitter and stores one row per method, constructor and annotation
// element together with its descriptor. Parsing runs in a worker pool and
// rows are committed to SQLite by a single writer.
//
// # Usage
//
//	e, err := index.New(".smalisig/index.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	stats, err := e.IndexDirectory(ctx, "path/to/project")
//
//	q := e.Query()
//	m, err := q.MethodAt("/abs/path/Foo.java", 41, 8)
//	fmt.Println(m.Descriptor)
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] answers:
//
//   - [QueryBuilder.MethodAt]: the innermost method enclosing a position.
//   - [QueryBuilder.MethodsByName]: glob search on method names, paged.
//   - [QueryBuilder.MethodsByOwner]: every method of one class.
//   - [QueryBuilder.MethodByDescriptor]: reverse lookup of a descriptor.
//   - [QueryBuilder.MethodsInFile] and [QueryBuilder.Files]: listings.
//
// # Settings
//
// Stored descriptors depend on encoder settings (see [WithRawDollar]). The
// settings hash is kept in the database; [Engine.SettingsChanged] reports
// when it no longer matches and [Engine.Reset] clears the index.
//
// # Scripts
//
// [Engine.RunScript] runs a Risor script with the index attached, so batch
// conversions can combine live parsing with indexed lookups. See the
// internal/runtime package for the globals exposed to scripts.
package index
