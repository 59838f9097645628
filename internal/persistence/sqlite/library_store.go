package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/liliang-cn/vectordb/internal/encoding"
	"github.com/liliang-cn/vectordb/internal/model"
)

// LibraryStore implements persistence.Libraries.
type LibraryStore struct {
	db *sql.DB
}

func (s *LibraryStore) Save(ctx context.Context, lib *model.Library) error {
	metaJSON, err := encoding.EncodeMetadata(lib.Metadata)
	if err != nil {
		return wrapErr("libraries.save", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO libraries (id, name, dims, index_type, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			dims = excluded.dims,
			index_type = excluded.index_type,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`, lib.ID, lib.Name, lib.Dims, lib.IndexType, metaJSON)
	if err != nil {
		return wrapErr("libraries.save", err)
	}
	return nil
}

func (s *LibraryStore) Load(ctx context.Context, id string) (*model.Library, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, dims, index_type, metadata FROM libraries WHERE id = ?
	`, id)
	lib, err := scanLibrary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr("libraries.load", err)
	}
	return lib, true, nil
}

func (s *LibraryStore) LoadAll(ctx context.Context) (map[string]*model.Library, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, dims, index_type, metadata FROM libraries`)
	if err != nil {
		return nil, wrapErr("libraries.load_all", err)
	}
	defer rows.Close()

	out := make(map[string]*model.Library)
	for rows.Next() {
		lib, err := scanLibrary(rows)
		if err != nil {
			return nil, wrapErr("libraries.load_all", err)
		}
		out[lib.ID] = lib
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("libraries.load_all", err)
	}
	return out, nil
}

func (s *LibraryStore) Update(ctx context.Context, id string, patch model.LibraryPatch) (*model.Library, bool, error) {
	lib, found, err := s.Load(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}

	if patch.Name != nil {
		lib.Name = *patch.Name
	}
	if patch.Metadata != nil {
		lib.Metadata = patch.Metadata
	}

	if err := s.Save(ctx, lib); err != nil {
		return nil, false, wrapErr("libraries.update", err)
	}
	return lib, true, nil
}

func (s *LibraryStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, id)
	if err != nil {
		return false, wrapErr("libraries.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("libraries.delete", err)
	}
	return n > 0, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLibrary(row scannable) (*model.Library, error) {
	var lib model.Library
	var metaJSON sql.NullString
	if err := row.Scan(&lib.ID, &lib.Name, &lib.Dims, &lib.IndexType, &metaJSON); err != nil {
		return nil, err
	}
	if metaJSON.Valid {
		meta, err := encoding.DecodeMetadata(metaJSON.String)
		if err != nil {
			return nil, fmt.Errorf("decode library metadata: %w", err)
		}
		lib.Metadata = meta
	}
	return &lib, nil
}
