package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction and returns the real IDs of the committed
// methods, in buffer order. The file record's package and parse status are
// updated in the same transaction.
func (s *Store) CommitBatch(batch *BatchedStore) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if batch.FileID > 0 {
		if _, err := tx.Exec("UPDATE files SET package = ?, has_errors = ? WHERE id = ?",
			batch.Package, batch.HasErrors, batch.FileID); err != nil {
			return nil, fmt.Errorf("commit batch: file %d: %w", batch.FileID, err)
		}
	}

	ids := make([]int64, 0, len(batch.Methods))
	for _, m := range batch.Methods {
		if m.FileID <= 0 {
			m.FileID = batch.FileID
		}
		realID, err := insertMethodTx(tx, &m)
		if err != nil {
			return nil, fmt.Errorf("commit batch: method %s.%s: %w", m.Owner, m.Name, err)
		}
		ids = append(ids, realID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return ids, nil
}

// insertMethodTx mirrors Store.InsertMethod but accepts *sql.Tx.
func insertMethodTx(tx *sql.Tx, m *Method) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO methods (file_id, owner, name, descriptor, params, return_type, is_constructor,
			start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.FileID, m.Owner, m.Name, m.Descriptor, marshalStrings(m.Params), m.ReturnType, m.Constructor,
		m.StartLine, m.StartCol, m.EndLine, m.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
