package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

const fileCols = "id, path, package, hash, line_count, has_errors, last_indexed"

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, package, hash, line_count, has_errors, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.Package, f.Hash, f.LineCount, f.HasErrors, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// UpdateFileInfo records what the parser learned about a file once it has
// been extracted.
func (s *Store) UpdateFileInfo(fileID int64, pkg string, hasErrors bool) error {
	if _, err := s.db.Exec("UPDATE files SET package = ?, has_errors = ? WHERE id = ?", pkg, hasErrors, fileID); err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return nil
}

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var pkg sql.NullString
	var hash sql.NullString
	var ts sql.NullTime
	if err := scanner.Scan(&f.ID, &f.Path, &pkg, &hash, &f.LineCount, &f.HasErrors, &ts); err != nil {
		return nil, err
	}
	f.Package = pkg.String
	f.Hash = hash.String
	f.LastIndexed = ts.Time
	return f, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FileByID(id int64) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Method operations ---

// MethodCols is the column list for method queries, exported for use by QueryBuilder.
const MethodCols = `id, file_id, owner, name, descriptor, params, return_type, is_constructor,
	start_line, start_col, end_line, end_col`

func (s *Store) InsertMethod(m *Method) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO methods (file_id, owner, name, descriptor, params, return_type, is_constructor,
			start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.FileID, m.Owner, m.Name, m.Descriptor, marshalStrings(m.Params), m.ReturnType, m.Constructor,
		m.StartLine, m.StartCol, m.EndLine, m.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert method: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	return id, nil
}

// ScanMethodRow scans a single row into a Method. Exported for use by QueryBuilder.
func ScanMethodRow(scanner interface{ Scan(...any) error }) (*Method, error) {
	m := &Method{}
	var params string
	err := scanner.Scan(
		&m.ID, &m.FileID, &m.Owner, &m.Name, &m.Descriptor, &params, &m.ReturnType, &m.Constructor,
		&m.StartLine, &m.StartCol, &m.EndLine, &m.EndCol,
	)
	if err != nil {
		return nil, err
	}
	m.Params = unmarshalStrings(params)
	return m, nil
}

func (s *Store) queryMethods(query string, args ...any) ([]*Method, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var methods []*Method
	for rows.Next() {
		m, err := ScanMethodRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (s *Store) MethodsByFile(fileID int64) ([]*Method, error) {
	return s.queryMethods("SELECT "+MethodCols+" FROM methods WHERE file_id = ? ORDER BY start_line, start_col", fileID)
}

func (s *Store) MethodsByName(name string) ([]*Method, error) {
	return s.queryMethods("SELECT "+MethodCols+" FROM methods WHERE name = ? ORDER BY owner, id", name)
}

func (s *Store) MethodsByOwner(owner string) ([]*Method, error) {
	return s.queryMethods("SELECT "+MethodCols+" FROM methods WHERE owner = ? ORDER BY start_line, start_col", owner)
}

func (s *Store) MethodsByDescriptor(descriptor string) ([]*Method, error) {
	return s.queryMethods("SELECT "+MethodCols+" FROM methods WHERE descriptor = ? ORDER BY id", descriptor)
}

// MethodAt returns the innermost method in fileID whose span contains the
// 0-based position, or nil.
func (s *Store) MethodAt(fileID int64, line, col int) (*Method, error) {
	m, err := ScanMethodRow(s.db.QueryRow(
		`SELECT `+MethodCols+` FROM methods
		 WHERE file_id = ? AND start_line <= ? AND end_line >= ?
		   AND (start_line < ? OR (start_line = ? AND start_col <= ?))
		   AND (end_line > ? OR (end_line = ? AND end_col >= ?))
		 ORDER BY start_line DESC, start_col DESC
		 LIMIT 1`,
		fileID, line, line,
		line, line, col,
		line, line, col,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("method at: %w", err)
	}
	return m, nil
}

// --- Metadata ---

// GetMetadata returns the value stored under key, or "" when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
