package model

// DocumentChunk is one embedded slice of a document's extracted text.
// ChunkIndex is a dense 0-based ordinal in chunker output order; the whole
// set for a document is replaced as a unit on re-ingestion.
type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	PageNumber int       `json:"page_number"`
	Embedding  []float32 `json:"-"`
	CreatedAt  int64     `json:"created_at"`
}
