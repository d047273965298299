package constants

// SessionState is the lifecycle state of an extraction session.
type SessionState string

// Stable values (these exact strings are stored in the session cache).
const (
	SessionInitial      SessionState = "initial"
	SessionProcessing   SessionState = "processing"
	SessionNeedsRetry   SessionState = "needs_retry"
	SessionComplete     SessionState = "complete"
	SessionManualReview SessionState = "manual_review"
	SessionFailed       SessionState = "failed"
)

// Terminal reports whether no further extraction attempts are accepted.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionComplete, SessionManualReview, SessionFailed:
		return true
	}
	return false
}

// ValidationStatus is the caller-declared outcome attached to a save request.
type ValidationStatus string

const (
	ValidationComplete     ValidationStatus = "complete"
	ValidationManualReview ValidationStatus = "manual_review"
)

const (
	// MaxAttempts is the per-session retry budget. Attempts are consumed only
	// by successful model calls.
	MaxAttempts = 5

	// MaxImageBytes caps uploaded invoice photos at 10 MB.
	MaxImageBytes = 10 * 1024 * 1024
)
