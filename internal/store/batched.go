package store

import "sync"

// BatchedStore buffers extraction inserts in memory using fake (negative)
// IDs. It implements DataStore so extraction code can write to it
// without knowing whether it's hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Read queries are passed through to the underlying Store, which is safe
// for concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	// File metadata learned during extraction, applied on commit.
	FileID    int64
	Package   string
	HasErrors bool

	Methods []Method

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore for fileID backed by the given
// Store for read queries.
func NewBatchedStore(s *Store, fileID int64) *BatchedStore {
	return &BatchedStore{
		store:      s,
		FileID:     fileID,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertMethod(m *Method) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	m.ID = fakeID
	b.Methods = append(b.Methods, *m)
	return fakeID, nil
}

// SetFileInfo records the package and parse status for the batch's file.
func (b *BatchedStore) SetFileInfo(pkg string, hasErrors bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Package = pkg
	b.HasErrors = hasErrors
}

// MethodsByName passes through to the underlying Store and appends any
// buffered methods with that name.
func (b *BatchedStore) MethodsByName(name string) ([]*Method, error) {
	dbMethods, err := b.store.MethodsByName(name)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Methods {
		if b.Methods[i].Name == name {
			dbMethods = append(dbMethods, &b.Methods[i])
		}
	}
	return dbMethods, nil
}

// MethodsByFile returns methods for a file, merging any buffered (not yet
// committed) methods with those already in the database.
func (b *BatchedStore) MethodsByFile(fileID int64) ([]*Method, error) {
	dbMethods, err := b.store.MethodsByFile(fileID)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Methods {
		if b.Methods[i].FileID == fileID {
			dbMethods = append(dbMethods, &b.Methods[i])
		}
	}
	return dbMethods, nil
}
