package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/askdoc/askdoc/internal/model"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceForDocument swaps the document's entire chunk set inside one
// transaction: readers either see the old set or the new one, never a mix.
func (r *ChunkRepo) ReplaceForDocument(ctx context.Context, docID string, chunks []model.DocumentChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, docID); err != nil {
		return err
	}
	const insert = `
		INSERT INTO document_chunks (id, document_id, chunk_index, content, page_number, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range chunks {
		chunk := &chunks[i]
		_, err := tx.ExecContext(ctx, insert,
			chunk.ID,
			chunk.DocumentID,
			chunk.ChunkIndex,
			chunk.Content,
			chunk.PageNumber,
			pgvector.NewVector(chunk.Embedding),
			chunk.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, docID string) ([]model.DocumentChunk, error) {
	const query = `
		SELECT id, document_id, chunk_index, content, page_number, embedding, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index
	`
	rows, err := r.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	chunks := make([]model.DocumentChunk, 0)
	for rows.Next() {
		var chunk model.DocumentChunk
		var embedding pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content, &chunk.PageNumber, &embedding, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	const query = `SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, docID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
