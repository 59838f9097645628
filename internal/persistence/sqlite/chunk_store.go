package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/liliang-cn/vectordb/internal/encoding"
	"github.com/liliang-cn/vectordb/internal/model"
)

// ChunkStore implements persistence.Chunks.
type ChunkStore struct {
	db *sql.DB
}

func (s *ChunkStore) Save(ctx context.Context, chunk *model.Chunk) error {
	vecBytes, err := encoding.EncodeVector(chunk.Embedding)
	if err != nil {
		return wrapErr("chunks.save", err)
	}
	metaJSON, err := encoding.EncodeMetadata(chunk.Metadata)
	if err != nil {
		return wrapErr("chunks.save", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, library_id, document_id, text, embedding, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			library_id = excluded.library_id,
			document_id = excluded.document_id,
			text = excluded.text,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`, chunk.ID, chunk.LibraryID, chunk.DocumentID, chunk.Text, vecBytes, metaJSON)
	if err != nil {
		return wrapErr("chunks.save", err)
	}
	return nil
}

func (s *ChunkStore) Load(ctx context.Context, id string) (*model.Chunk, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, library_id, document_id, text, embedding, metadata FROM chunks WHERE id = ?
	`, id)
	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr("chunks.load", err)
	}
	return chunk, true, nil
}

func (s *ChunkStore) LoadForLibrary(ctx context.Context, libraryID string) ([]*model.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, library_id, document_id, text, embedding, metadata FROM chunks WHERE library_id = ?
	`, libraryID)
	if err != nil {
		return nil, wrapErr("chunks.load_for_library", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *ChunkStore) LoadForDocument(ctx context.Context, documentID string) ([]*model.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, library_id, document_id, text, embedding, metadata FROM chunks WHERE document_id = ?
	`, documentID)
	if err != nil {
		return nil, wrapErr("chunks.load_for_document", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *ChunkStore) Update(ctx context.Context, id string, patch model.ChunkPatch) (*model.Chunk, bool, error) {
	chunk, found, err := s.Load(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}

	if patch.Text != nil {
		chunk.Text = *patch.Text
	}
	if patch.Embedding != nil {
		chunk.Embedding = patch.Embedding
	}
	if patch.Metadata != nil {
		chunk.Metadata = patch.Metadata
	}

	if err := s.Save(ctx, chunk); err != nil {
		return nil, false, wrapErr("chunks.update", err)
	}
	return chunk, true, nil
}

func (s *ChunkStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id = ?`, id)
	if err != nil {
		return false, wrapErr("chunks.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("chunks.delete", err)
	}
	return n > 0, nil
}

func (s *ChunkStore) DeleteForDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, wrapErr("chunks.delete_for_document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("chunks.delete_for_document", err)
	}
	return int(n), nil
}

func (s *ChunkStore) DeleteForLibrary(ctx context.Context, libraryID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE library_id = ?`, libraryID)
	if err != nil {
		return 0, wrapErr("chunks.delete_for_library", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("chunks.delete_for_library", err)
	}
	return int(n), nil
}

func scanChunk(row scannable) (*model.Chunk, error) {
	var chunk model.Chunk
	var vecBytes []byte
	var metaJSON sql.NullString
	if err := row.Scan(&chunk.ID, &chunk.LibraryID, &chunk.DocumentID, &chunk.Text, &vecBytes, &metaJSON); err != nil {
		return nil, err
	}
	vec, err := encoding.DecodeVector(vecBytes)
	if err != nil {
		return nil, fmt.Errorf("decode chunk embedding: %w", err)
	}
	chunk.Embedding = vec
	if metaJSON.Valid {
		meta, err := encoding.DecodeMetadata(metaJSON.String)
		if err != nil {
			return nil, fmt.Errorf("decode chunk metadata: %w", err)
		}
		chunk.Metadata = meta
	}
	return &chunk, nil
}

func scanChunks(rows *sql.Rows) ([]*model.Chunk, error) {
	var out []*model.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk)
	}
	return out, rows.Err()
}
