package model

// Document status lifecycle: pending -> uploaded -> processing -> ready|failed.
// Only an uploaded document may enter processing; a failed or ready document
// needs a new upload cycle before it can be ingested again.
const (
	DocumentStatusPending    = "pending"
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusProcessing = "processing"
	DocumentStatusReady      = "ready"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Filename     string `json:"filename"`
	StorageKey   string `json:"storage_key"`
	Status       string `json:"status"`
	PageCount    *int   `json:"page_count,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}
