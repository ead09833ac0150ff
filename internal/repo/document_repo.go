package repo

import (
	"context"
	"database/sql"
	"unicode/utf8"

	"github.com/didi/gendry/builder"

	"github.com/askdoc/askdoc/internal/model"
	"github.com/askdoc/askdoc/internal/pkg/dbutil"
	appErr "github.com/askdoc/askdoc/internal/pkg/errors"
)

// ErrorMessageCap bounds the persisted ingestion failure message.
const ErrorMessageCap = 2000

var documentFields = []string{"id", "user_id", "filename", "storage_key", "status", "page_count", "error_message", "created_at"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"user_id":     doc.UserID,
		"filename":    doc.Filename,
		"storage_key": doc.StorageKey,
		"status":      doc.Status,
		"created_at":  doc.CreatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id": docID,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return scanDocument(r.db.QueryRowContext(ctx, sqlStr, args...))
}

func (r *DocumentRepo) GetForUser(ctx context.Context, userID, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return scanDocument(r.db.QueryRowContext(ctx, sqlStr, args...))
}

func (r *DocumentRepo) ListByUser(ctx context.Context, userID string, limit uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "created_at desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]model.Document, 0)
	for rows.Next() {
		var doc model.Document
		var pageCount sql.NullInt64
		var errMsg sql.NullString
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.StorageKey, &doc.Status, &pageCount, &errMsg, &doc.CreatedAt); err != nil {
			return nil, err
		}
		applyNullable(&doc, pageCount, errMsg)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, userID, docID string) error {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// TransitionStatus flips status from one value to another as a single
// compare-and-swap. Returns false when the document is absent or not in the
// expected state; this is what keeps at most one ingestion run in flight per
// document.
func (r *DocumentRepo) TransitionStatus(ctx context.Context, docID, from, to string) (bool, error) {
	const query = `UPDATE documents SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, docID, from)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *DocumentRepo) MarkReady(ctx context.Context, docID string, pageCount int) error {
	const query = `UPDATE documents SET status = $1, page_count = $2, error_message = NULL WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, model.DocumentStatusReady, pageCount, docID)
	return err
}

func (r *DocumentRepo) MarkFailed(ctx context.Context, docID, message string) error {
	message = truncateMessage(message, ErrorMessageCap)
	const query = `UPDATE documents SET status = $1, error_message = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, model.DocumentStatusFailed, message, docID)
	return err
}

// DeleteStalePending clears pending documents whose upload was never
// confirmed before the cutoff. Used by the cleanup job.
func (r *DocumentRepo) DeleteStalePending(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM documents WHERE status = $1 AND created_at < $2`
	result, err := r.db.ExecContext(ctx, query, model.DocumentStatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// truncateMessage caps the message at max characters, never cutting inside a
// rune; a byte slice could split a multibyte sequence and leave invalid UTF-8
// that the database rejects.
func truncateMessage(message string, max int) string {
	if utf8.RuneCountInString(message) <= max {
		return message
	}
	runes := []rune(message)
	return string(runes[:max])
}

func scanDocument(row *sql.Row) (*model.Document, error) {
	var doc model.Document
	var pageCount sql.NullInt64
	var errMsg sql.NullString
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.StorageKey, &doc.Status, &pageCount, &errMsg, &doc.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	applyNullable(&doc, pageCount, errMsg)
	return &doc, nil
}

func applyNullable(doc *model.Document, pageCount sql.NullInt64, errMsg sql.NullString) {
	if pageCount.Valid {
		value := int(pageCount.Int64)
		doc.PageCount = &value
	}
	if errMsg.Valid {
		doc.ErrorMessage = errMsg.String
	}
}
