package models

// Attachment describes server-side metadata for a binary payload associated
// with a post. The encrypted content itself lives in object storage and
// moves via presigned URLs.
type Attachment struct {
	ID        string
	PostID    string
	AccountID string

	// StorageKey is the object-storage key (path) of the ciphertext blob.
	StorageKey string
	// Nonce is the AEAD nonce the client used to encrypt the content.
	Nonce string

	// UploadStatus tracks server-side upload state ("pending", "completed").
	UploadStatus string
}

// Attachment upload states.
const (
	AttachmentUploadPending   = "pending"
	AttachmentUploadCompleted = "completed"
)
