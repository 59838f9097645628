package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/liliang-cn/vectordb/internal/encoding"
	"github.com/liliang-cn/vectordb/internal/model"
)

// DocumentStore implements persistence.Documents.
type DocumentStore struct {
	db *sql.DB
}

func (s *DocumentStore) Save(ctx context.Context, doc *model.Document) error {
	metaJSON, err := encoding.EncodeMetadata(doc.Metadata)
	if err != nil {
		return wrapErr("documents.save", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, library_id, title, metadata, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			library_id = excluded.library_id,
			title = excluded.title,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`, doc.ID, doc.LibraryID, doc.Title, metaJSON)
	if err != nil {
		return wrapErr("documents.save", err)
	}
	return nil
}

func (s *DocumentStore) Load(ctx context.Context, id string) (*model.Document, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, library_id, title, metadata FROM documents WHERE id = ?
	`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr("documents.load", err)
	}
	return doc, true, nil
}

func (s *DocumentStore) LoadForLibrary(ctx context.Context, libraryID string) ([]*model.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, library_id, title, metadata FROM documents WHERE library_id = ?
	`, libraryID)
	if err != nil {
		return nil, wrapErr("documents.load_for_library", err)
	}
	defer rows.Close()

	var out []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, wrapErr("documents.load_for_library", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *DocumentStore) Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, bool, error) {
	doc, found, err := s.Load(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}

	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Metadata != nil {
		doc.Metadata = patch.Metadata
	}

	if err := s.Save(ctx, doc); err != nil {
		return nil, false, wrapErr("documents.update", err)
	}
	return doc, true, nil
}

func (s *DocumentStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, wrapErr("documents.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("documents.delete", err)
	}
	return n > 0, nil
}

func (s *DocumentStore) DeleteForLibrary(ctx context.Context, libraryID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE library_id = ?`, libraryID)
	if err != nil {
		return 0, wrapErr("documents.delete_for_library", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("documents.delete_for_library", err)
	}
	return int(n), nil
}

func scanDocument(row scannable) (*model.Document, error) {
	var doc model.Document
	var metaJSON sql.NullString
	if err := row.Scan(&doc.ID, &doc.LibraryID, &doc.Title, &metaJSON); err != nil {
		return nil, err
	}
	if metaJSON.Valid {
		meta, err := encoding.DecodeMetadata(metaJSON.String)
		if err != nil {
			return nil, fmt.Errorf("decode document metadata: %w", err)
		}
		doc.Metadata = meta
	}
	return &doc, nil
}
