package store

// DataStore is the interface for extraction-phase data access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// extraction) implement this interface.
type DataStore interface {
	InsertMethod(m *Method) (int64, error)

	// Queries available to scripts while extraction is running.
	MethodsByFile(fileID int64) ([]*Method, error)
	MethodsByName(name string) ([]*Method, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
