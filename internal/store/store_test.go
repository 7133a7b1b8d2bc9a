package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path string) *File {
	t.Helper()
	f := &File{Path: path, Package: "com.example", Hash: "abc123", LineCount: 10, LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

// insertTestMethod inserts a method with minimal required fields.
func insertTestMethod(t *testing.T, s *Store, fileID int64, owner, name string, startLine, endLine int) *Method {
	t.Helper()
	m := &Method{
		FileID:     fileID,
		Owner:      owner,
		Name:       name,
		Descriptor: "L" + owner + ";->" + name + "()V",
		ReturnType: "void",
		StartLine:  startLine, StartCol: 4, EndLine: endLine, EndCol: 5,
	}
	id, err := s.InsertMethod(m)
	require.NoError(t, err)
	require.Positive(t, id)
	return m
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "methods", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestNewStore_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Files
// =============================================================================

func TestInsertFile_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.java")

	got, err := s.FileByPath("/src/Foo.java")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "com.example", got.Package)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, 10, got.LineCount)
	assert.False(t, got.HasErrors)
	assert.True(t, f.LastIndexed.Equal(got.LastIndexed))

	byID, err := s.FileByID(f.ID)
	require.NoError(t, err)
	assert.Equal(t, got, byID)
}

func TestFileByPath_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f, err := s.FileByPath("/nope.java")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestInsertFile_DuplicatePathFails(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/a.java")

	_, err := s.InsertFile(&File{Path: "/a.java"})
	assert.Error(t, err)
}

func TestFiles_OrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/b.java")
	insertTestFile(t, s, "/a.java")

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/a.java", files[0].Path)
	assert.Equal(t, "/b.java", files[1].Path)
}

func TestUpdateFileInfo(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.java")

	require.NoError(t, s.UpdateFileInfo(f.ID, "org.other", true))
	got, err := s.FileByID(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "org.other", got.Package)
	assert.True(t, got.HasErrors)
}

// =============================================================================
// Methods
// =============================================================================

func TestInsertMethod_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.java")

	m := &Method{
		FileID:      f.ID,
		Owner:       "com.example.A$B",
		Name:        "<init>",
		Descriptor:  `Lcom/example/A$B;-><init>(I[Ljava/lang/String;)V`,
		Params:      []string{"int", "java.lang.String[]"},
		ReturnType:  "void",
		Constructor: true,
		StartLine:   3, StartCol: 4, EndLine: 6, EndCol: 5,
	}
	_, err := s.InsertMethod(m)
	require.NoError(t, err)

	got, err := s.MethodsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, m, got[0])
}

func TestInsertMethod_NoParamsIsEmptySlice(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.java")
	insertTestMethod(t, s, f.ID, "A", "run", 1, 2)

	got, err := s.MethodsByName("run")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Params)
	assert.Empty(t, got[0].Params)
}

func TestMethodsByOwnerAndDescriptor(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.java")
	a := insertTestMethod(t, s, f.ID, "A", "one", 1, 2)
	insertTestMethod(t, s, f.ID, "A", "two", 3, 4)
	insertTestMethod(t, s, f.ID, "B", "one", 5, 6)

	byOwner, err := s.MethodsByOwner("A")
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
	assert.Equal(t, "one", byOwner[0].Name)
	assert.Equal(t, "two", byOwner[1].Name)

	byDesc, err := s.MethodsByDescriptor(a.Descriptor)
	require.NoError(t, err)
	require.Len(t, byDesc, 1)
	assert.Equal(t, a.ID, byDesc[0].ID)
}

func TestMethodAt_Innermost(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.java")
	outer := insertTestMethod(t, s, f.ID, "A", "outer", 2, 20)
	inner := insertTestMethod(t, s, f.ID, "UnknownClass", "run", 5, 8)

	m, err := s.MethodAt(f.ID, 6, 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, inner.ID, m.ID)

	m, err = s.MethodAt(f.ID, 12, 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, outer.ID, m.ID)

	// Start column is inclusive, anything left of it is outside.
	m, err = s.MethodAt(f.ID, 2, 3)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = s.MethodAt(f.ID, 30, 0)
	require.NoError(t, err)
	assert.Nil(t, m)
}

// =============================================================================
// Deletion
// =============================================================================

func TestDeleteFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.java")
	insertTestMethod(t, s, f.ID, "A", "m", 1, 2)

	require.NoError(t, s.DeleteFile(f.ID))

	got, err := s.FileByID(f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	methods, err := s.MethodsByName("m")
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestDeleteFilesNotIn(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/repo/a.java")
	insertTestFile(t, s, "/repo/gone.java")
	insertTestFile(t, s, "/elsewhere/x.java")

	removed, err := s.DeleteFilesNotIn("/repo", []string{"/repo/a.java"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	files, err := s.Files()
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"/elsewhere/x.java", "/repo/a.java"}, paths)
}

// =============================================================================
// Metadata & hashing
// =============================================================================

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("settings_hash")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("settings_hash", "one"))
	require.NoError(t, s.SetMetadata("settings_hash", "two"))
	v, err = s.GetMetadata("settings_hash")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestSettingsHash_Deterministic(t *testing.T) {
	t.Parallel()

	a := SettingsHash(map[string]string{"raw_dollar": "false", "version": "1"})
	b := SettingsHash(map[string]string{"version": "1", "raw_dollar": "false"})
	c := SettingsHash(map[string]string{"version": "1", "raw_dollar": "true"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ContentHash([]byte("class A {}")), ContentHash([]byte("class A {}")))
	assert.NotEqual(t, ContentHash([]byte("class A {}")), ContentHash([]byte("class B {}")))
}

func TestGlobToLike(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "get%", GlobToLike("get*"))
	assert.Equal(t, `\_\%x%`, GlobToLike("_%x*"))
	assert.Equal(t, `a\\b`, GlobToLike(`a\b`))
}
