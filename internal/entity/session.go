package entity

import (
	"time"

	"github.com/lumis-app/invoice-ocr/constants"
)

// Session tracks one invoice's multi-photo extraction process for one user.
// It lives in the session cache between requests and is deleted once the
// invoice is persisted (or expires via TTL otherwise).
type Session struct {
	ID                string                `json:"session_id"`
	UserID            int64                 `json:"user_id"`
	AttemptCount      int                   `json:"attempt_count"`
	MaxAttempts       int                   `json:"max_attempts"`
	State             constants.SessionState `json:"state"`
	Detected          ExtractedFields       `json:"detected_fields"`
	Missing           []constants.FieldKey  `json:"missing_fields"`
	Images            []SessionImage        `json:"images"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	ConsolidatedImage string                `json:"consolidated_image,omitempty"` // base64
}

// SessionImage is one uploaded photo, in upload order.
type SessionImage struct {
	ID            string               `json:"image_id"`
	AttemptNumber int                  `json:"attempt_number"`
	Data          string               `json:"image_data"` // base64
	MimeType      string               `json:"mime_type"`
	FileSize      int64                `json:"file_size"`
	FocusFields   []constants.FieldKey `json:"focus_fields,omitempty"` // fields this attempt targeted
	UploadedAt    time.Time            `json:"uploaded_at"`
}

// IsComplete reports whether the session reached the Complete state.
func (s *Session) IsComplete() bool {
	return s.State == constants.SessionComplete
}

// LatestImage returns the most recently uploaded image, or nil when none.
func (s *Session) LatestImage() *SessionImage {
	if len(s.Images) == 0 {
		return nil
	}
	return &s.Images[len(s.Images)-1]
}
