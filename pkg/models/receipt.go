package models

import (
	"time"
)

// Receipt is the metadata record kept for every stored receipt image.
// The ID is the content hash of the image bytes, so re-uploading the same
// receipt never creates a second record.
type Receipt struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"user_id"`
	SessionID string    `json:"session_id" firestore:"session_id"`
	MIMEType  string    `json:"mime_type" firestore:"mime_type"`
	SizeBytes int64     `json:"size_bytes" firestore:"size_bytes"`
	StoredAt  time.Time `json:"stored_at" firestore:"stored_at"`
}
