package index

import (
	"fmt"
	"strings"

	"github.com/jward/smalisig"
	"github.com/jward/smalisig/internal/store"
)

// QueryBuilder provides read access to the method index.
type QueryBuilder struct {
	store   *store.Store
	encoder smalisig.Encoder
}

// Location represents a source code position range. Positions are 0-based.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// MethodResult is one indexed method with its source location.
type MethodResult struct {
	ID          int64
	Owner       string
	Name        string
	Descriptor  string
	Params      []string
	ReturnType  string
	Constructor bool
	Location    Location
}

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

const methodSelect = `SELECT m.id, m.file_id, m.owner, m.name, m.descriptor, m.params, m.return_type,
	m.is_constructor, m.start_line, m.start_col, m.end_line, m.end_col, f.path
 FROM methods m JOIN files f ON f.id = m.file_id`

func scanMethodResult(scanner interface{ Scan(...any) error }) (MethodResult, error) {
	var path string
	m, err := store.ScanMethodRow(rowWithPath{scanner, &path})
	if err != nil {
		return MethodResult{}, err
	}
	return toResult(m, path), nil
}

// rowWithPath appends the joined file path to the destinations of a
// method row scan.
type rowWithPath struct {
	scanner interface{ Scan(...any) error }
	path    *string
}

func (r rowWithPath) Scan(dest ...any) error {
	return r.scanner.Scan(append(dest, r.path)...)
}

func toResult(m *store.Method, path string) MethodResult {
	return MethodResult{
		ID:          m.ID,
		Owner:       m.Owner,
		Name:        m.Name,
		Descriptor:  m.Descriptor,
		Params:      m.Params,
		ReturnType:  m.ReturnType,
		Constructor: m.Constructor,
		Location: Location{
			File:      path,
			StartLine: m.StartLine,
			StartCol:  m.StartCol,
			EndLine:   m.EndLine,
			EndCol:    m.EndCol,
		},
	}
}

func (q *QueryBuilder) queryMethods(op, where string, args ...any) ([]MethodResult, error) {
	rows, err := q.store.DB().Query(methodSelect+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []MethodResult{}
	for rows.Next() {
		mr, err := scanMethodResult(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, mr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return items, nil
}

// MethodAt returns the innermost indexed method enclosing (line, col) in
// file, or nil when the file is not indexed or the position is outside
// every method.
func (q *QueryBuilder) MethodAt(file string, line, col int) (*MethodResult, error) {
	f, err := q.store.FileByPath(file)
	if err != nil {
		return nil, fmt.Errorf("method at: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	m, err := q.store.MethodAt(f.ID, line, col)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	mr := toResult(m, f.Path)
	return &mr, nil
}

// MethodsByName performs glob-style search on method names; "*" matches
// any run of characters. An empty pattern or "*" matches everything.
func (q *QueryBuilder) MethodsByName(pattern string, page Pagination) (*PagedResult[MethodResult], error) {
	page = page.normalize()

	where := ""
	var args []any
	if pattern != "" && pattern != "*" {
		where = `WHERE m.name LIKE ? ESCAPE '\'`
		args = append(args, store.GlobToLike(pattern))
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM methods m " + where
	if err := q.store.DB().QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("methods by name: count: %w", err)
	}

	dataArgs := append(append([]any{}, args...), page.Limit, page.Offset)
	items, err := q.queryMethods("methods by name",
		where+" ORDER BY m.name, m.owner, m.id LIMIT ? OFFSET ?", dataArgs...)
	if err != nil {
		return nil, err
	}
	return &PagedResult[MethodResult]{Items: items, TotalCount: total}, nil
}

// MethodsByOwner returns every method of a class, given its dotted binary
// name (com.example.Outer$Inner) or its slash form.
func (q *QueryBuilder) MethodsByOwner(owner string) ([]MethodResult, error) {
	owner = strings.ReplaceAll(owner, "/", ".")
	return q.queryMethods("methods by owner",
		"WHERE m.owner = ? ORDER BY f.path, m.start_line, m.start_col", owner)
}

// MethodByDescriptor finds the methods whose stored descriptor matches desc.
// Escaped ("\$") and plain "$" spellings of nested class names both match.
// The same descriptor may be declared in several files. A malformed
// descriptor yields an error wrapping smalisig.ErrMalformedDescriptor.
func (q *QueryBuilder) MethodByDescriptor(desc string) ([]MethodResult, error) {
	d, err := smalisig.ParseMethod(desc)
	if err != nil {
		return nil, fmt.Errorf("method by descriptor: %w", err)
	}
	// Stored owners are never escaped.
	d.OwnerClass = strings.ReplaceAll(d.OwnerClass, `\$`, "$")
	canonical, err := q.encoder.EncodeMethod(d)
	if err != nil {
		return nil, fmt.Errorf("method by descriptor: %w", err)
	}
	return q.queryMethods("method by descriptor",
		"WHERE m.descriptor = ? ORDER BY f.path, m.start_line", canonical)
}

// MethodsInFile returns the methods of one indexed file in source order.
func (q *QueryBuilder) MethodsInFile(file string) ([]MethodResult, error) {
	return q.queryMethods("methods in file",
		"WHERE f.path = ? ORDER BY m.start_line, m.start_col", file)
}

// Files lists indexed files ordered by path.
func (q *QueryBuilder) Files(page Pagination) (*PagedResult[store.File], error) {
	page = page.normalize()

	all, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	items := []store.File{}
	for i := page.Offset; i < len(all) && len(items) < page.Limit; i++ {
		items = append(items, *all[i])
	}
	return &PagedResult[store.File]{Items: items, TotalCount: len(all)}, nil
}
