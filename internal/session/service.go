// Package session implements the iterative extraction workflow: sessions
// accumulate invoice fields across photos until complete or out of attempts,
// then hand off to persistence.
package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/common"
	"github.com/lumis-app/invoice-ocr/internal/cufe"
	"github.com/lumis-app/invoice-ocr/internal/entity"
	"github.com/lumis-app/invoice-ocr/internal/fields"
	"github.com/lumis-app/invoice-ocr/internal/llm"
	"github.com/lumis-app/invoice-ocr/internal/repository"
)

// Action is what the caller wants done this round. Exactly one of the three
// concrete types below.
type Action interface {
	isAction()
}

// Initial starts a new session from the first photo.
type Initial struct {
	Image    []byte
	MimeType string
}

// Retry adds a photo targeting specific fields. With a SessionID it advances
// the cached session; without one it is a stateless retry where Previous
// carries the caller's accumulated fields. When Previous is set on a
// sessioned retry it replaces the cached record before the merge (the client
// may have hand-corrected values).
type Retry struct {
	SessionID string
	Image     []byte
	MimeType  string
	Targeted  []constants.FieldKey
	Previous  *entity.ExtractedFields
}

// Consolidate asks for the best single image of the session without running
// any model.
type Consolidate struct {
	SessionID string
}

func (Initial) isAction()     {}
func (Retry) isAction()       {}
func (Consolidate) isAction() {}

// Cost is the token/credit accounting surfaced with each outcome.
type Cost struct {
	TokensUsed int     `json:"tokens_used"`
	LumisUsed  float64 `json:"lumis_used"`
}

// Outcome is the result of one Process call, shaped for the transport layer.
// Success reports completion, not transport health: an extraction that still
// misses fields carries Success=false alongside the populated missing list.
type Outcome struct {
	Success           bool                    `json:"success"`
	SessionID         string                  `json:"session_id,omitempty"`
	AttemptCount      int                     `json:"attempt_count"`
	MaxAttempts       int                     `json:"max_attempts"`
	Status            constants.SessionState  `json:"status"`
	Detected          entity.ExtractedFields  `json:"detected_fields"`
	Missing           []constants.FieldKey    `json:"missing_fields"`
	ExtractedData     *entity.ExtractedFields `json:"extracted_data,omitempty"`
	ConsolidatedImage string                  `json:"consolidated_image,omitempty"`
	Message           string                  `json:"message"`
	Cost              Cost                    `json:"cost"`
}

// SaveRequest finalizes a session into a persisted invoice.
type SaveRequest struct {
	SessionID        string
	UserEmail        string
	ValidationStatus constants.ValidationStatus
	// Fields overrides the cached accumulated record when set, so the client
	// can submit hand-corrected values.
	Fields *entity.ExtractedFields
	// ConsolidatedImage (base64) overrides the session's pinned image.
	ConsolidatedImage string
}

// SaveOutcome reports the persistence result. A duplicate is reported here
// (Success=false, Status "duplicate") rather than as an error, because the
// client needs the existing identity to link to.
type SaveOutcome struct {
	Success   bool     `json:"success"`
	Identity  string   `json:"identity"`
	InvoiceID int64    `json:"invoice_id,omitempty"`
	Status    string   `json:"status"`
	NextSteps []string `json:"next_steps"`
	Message   string   `json:"message"`
}

// Service orchestrates sessions: store, model cascade, persistence.
type Service struct {
	store     Store
	extractor llm.Extractor
	invoices  repository.InvoiceRepository
	logger    *slog.Logger
	ttl       time.Duration
}

func NewService(store Store, extractor llm.Extractor, invoices repository.InvoiceRepository, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:     store,
		extractor: extractor,
		invoices:  invoices,
		logger:    logger,
		ttl:       ttl,
	}
}

// Process runs one action against the engine. Failed model cascades leave the
// session untouched and do not consume an attempt.
func (s *Service) Process(ctx context.Context, userID int64, action Action) (*Outcome, error) {
	switch a := action.(type) {
	case Initial:
		return s.processInitial(ctx, userID, a)
	case Retry:
		return s.processRetry(ctx, userID, a)
	case Consolidate:
		return s.processConsolidate(ctx, userID, a)
	default:
		return nil, fmt.Errorf("%w: unknown action %T", common.ErrValidation, action)
	}
}

func (s *Service) processInitial(ctx context.Context, userID int64, a Initial) (*Outcome, error) {
	start := time.Now()
	sess := &entity.Session{
		ID:          newSessionID(),
		UserID:      userID,
		MaxAttempts: constants.MaxAttempts,
		State:       constants.SessionInitial,
		Missing:     append([]constants.FieldKey(nil), constants.RequiredFields...),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	ctx = common.WithSessionID(ctx, sess.ID)

	res, err := s.extractor.Extract(ctx, llm.ExtractRequest{
		Image:    a.Image,
		MimeType: a.MimeType,
		Prompt:   llm.BuildInitialPrompt(),
	})
	if err != nil {
		s.logger.Error("session.initial.extract_failed", "session_id", sess.ID, "error", err)
		return nil, err
	}

	s.addAttempt(sess, a.Image, a.MimeType, constants.RequiredFields, res.Fields)
	if err := s.store.Put(ctx, sess, s.ttl); err != nil {
		return nil, common.WrapError(err, "store session")
	}

	s.logger.Info("session.initial.done",
		"session_id", sess.ID,
		"status", sess.State,
		"missing", len(sess.Missing),
		"model", res.Model,
		"elapsed_ms", time.Since(start).Milliseconds())
	return s.outcome(sess, res.Usage), nil
}

func (s *Service) processRetry(ctx context.Context, userID int64, a Retry) (*Outcome, error) {
	if err := validateTargeted(a.Targeted); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.SessionID) == "" {
		return s.processStatelessRetry(ctx, a)
	}

	sess, err := s.loadOwned(ctx, a.SessionID, userID)
	if err != nil {
		return nil, err
	}
	ctx = common.WithSessionID(ctx, sess.ID)

	// Attempt budget is checked before spending a model call.
	if sess.AttemptCount >= sess.MaxAttempts {
		sess.State = constants.SessionManualReview
		sess.UpdatedAt = time.Now().UTC()
		if latest := sess.LatestImage(); latest != nil {
			sess.ConsolidatedImage = latest.Data
		}
		if err := s.store.Put(ctx, sess, s.ttl); err != nil {
			return nil, common.WrapError(err, "store session")
		}
		s.logger.Info("session.retry.attempts_exhausted", "session_id", sess.ID)
		return s.outcome(sess, llm.Usage{}), nil
	}

	if a.Previous != nil {
		sess.Detected = *a.Previous
		sess.Missing = fields.Missing(sess.Detected)
	}

	start := time.Now()
	res, err := s.extractor.Extract(ctx, llm.ExtractRequest{
		Image:    a.Image,
		MimeType: a.MimeType,
		Prompt:   llm.BuildFocusedPrompt(a.Targeted, sess.Detected),
	})
	if err != nil {
		// Session stays as it was; the attempt is not consumed.
		s.logger.Error("session.retry.extract_failed", "session_id", sess.ID, "error", err)
		return nil, err
	}

	s.addAttempt(sess, a.Image, a.MimeType, a.Targeted, res.Fields)
	if err := s.store.Put(ctx, sess, s.ttl); err != nil {
		return nil, common.WrapError(err, "store session")
	}

	s.logger.Info("session.retry.done",
		"session_id", sess.ID,
		"attempt", sess.AttemptCount,
		"status", sess.State,
		"missing", len(sess.Missing),
		"model", res.Model,
		"elapsed_ms", time.Since(start).Milliseconds())
	out := s.outcome(sess, res.Usage)
	out.ExtractedData = &out.Detected
	return out, nil
}

// processStatelessRetry serves callers that keep their own accumulated fields
// instead of a cached session: one focused extraction merged against the
// submitted previous data, nothing stored.
func (s *Service) processStatelessRetry(ctx context.Context, a Retry) (*Outcome, error) {
	var prev entity.ExtractedFields
	if a.Previous != nil {
		prev = *a.Previous
	}

	start := time.Now()
	res, err := s.extractor.Extract(ctx, llm.ExtractRequest{
		Image:    a.Image,
		MimeType: a.MimeType,
		Prompt:   llm.BuildFocusedPrompt(a.Targeted, prev),
	})
	if err != nil {
		s.logger.Error("session.retry.stateless_extract_failed", "error", err)
		return nil, err
	}

	merged := fields.Merge(prev, res.Fields, a.Targeted)
	missing := fields.Missing(merged)
	state := constants.SessionNeedsRetry
	if len(missing) == 0 {
		state = constants.SessionComplete
	}

	s.logger.Info("session.retry.stateless_done",
		"status", state,
		"missing", len(missing),
		"model", res.Model,
		"elapsed_ms", time.Since(start).Milliseconds())

	out := &Outcome{
		Success:       state == constants.SessionComplete,
		MaxAttempts:   constants.MaxAttempts,
		Status:        state,
		Detected:      merged,
		Missing:       missing,
		ExtractedData: &merged,
		Message:       stateMessage(state, missing, -1),
		Cost: Cost{
			TokensUsed: res.Usage.TotalTokens,
			LumisUsed:  res.Usage.CostUSD,
		},
	}
	return out, nil
}

func (s *Service) processConsolidate(ctx context.Context, userID int64, a Consolidate) (*Outcome, error) {
	sess, err := s.loadOwned(ctx, a.SessionID, userID)
	if err != nil {
		return nil, err
	}

	if latest := sess.LatestImage(); latest != nil {
		sess.ConsolidatedImage = latest.Data
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, sess, s.ttl); err != nil {
		return nil, common.WrapError(err, "store session")
	}
	return s.outcome(sess, llm.Usage{}), nil
}

// addAttempt applies one successful extraction: record the image, merge the
// result, recompute completeness and state.
func (s *Service) addAttempt(sess *entity.Session, image []byte, mimeType string, targeted []constants.FieldKey, extracted entity.ExtractedFields) {
	now := time.Now().UTC()
	sess.AttemptCount++
	sess.Images = append(sess.Images, entity.SessionImage{
		ID:            uuid.NewString(),
		AttemptNumber: sess.AttemptCount,
		Data:          base64.StdEncoding.EncodeToString(image),
		MimeType:      mimeType,
		FileSize:      int64(len(image)),
		FocusFields:   targeted,
		UploadedAt:    now,
	})

	sess.Detected = fields.Merge(sess.Detected, extracted, targeted)
	sess.Missing = fields.Missing(sess.Detected)
	sess.UpdatedAt = now

	switch {
	case len(sess.Missing) == 0:
		sess.State = constants.SessionComplete
		if latest := sess.LatestImage(); latest != nil {
			sess.ConsolidatedImage = latest.Data
		}
	case sess.AttemptCount >= sess.MaxAttempts:
		sess.State = constants.SessionManualReview
		if latest := sess.LatestImage(); latest != nil {
			sess.ConsolidatedImage = latest.Data
		}
	default:
		sess.State = constants.SessionNeedsRetry
	}
}

// Save finalizes the session into a persisted invoice. The session is deleted
// on success and kept (for correction and re-submission) on duplicates.
func (s *Service) Save(ctx context.Context, userID int64, req SaveRequest) (*SaveOutcome, error) {
	sess, err := s.loadOwned(ctx, req.SessionID, userID)
	if err != nil {
		return nil, err
	}
	ctx = common.WithSessionID(ctx, sess.ID)

	record := sess.Detected
	if req.Fields != nil {
		record = *req.Fields
	}

	consolidated := sess.ConsolidatedImage
	if req.ConsolidatedImage != "" {
		if _, err := base64.StdEncoding.DecodeString(req.ConsolidatedImage); err != nil {
			return nil, fmt.Errorf("%w: consolidated_image is not valid base64", common.ErrValidation)
		}
		consolidated = req.ConsolidatedImage
	}

	status := req.ValidationStatus
	if status == "" {
		status = constants.ValidationComplete
	}
	if status == constants.ValidationComplete {
		if missing := fields.Missing(record); len(missing) > 0 {
			return nil, fmt.Errorf("%w: missing required fields: %s",
				common.ErrValidation, joinKeys(missing))
		}
	}

	identity := cufe.Generate(record)

	existing, err := s.invoices.FindDuplicate(ctx, identity, record, userID)
	if err != nil {
		return nil, common.WrapError(err, "duplicate check")
	}
	if existing != "" {
		s.logger.Info("session.save.duplicate", "session_id", sess.ID, "identity", existing)
		return &SaveOutcome{
			Success:  false,
			Identity: existing,
			Status:   "duplicate",
			Message:  "this invoice was already registered",
		}, nil
	}

	imageURL := ""
	if consolidated != "" {
		mime := "image/jpeg"
		if latest := sess.LatestImage(); latest != nil && latest.MimeType != "" {
			mime = latest.MimeType
		}
		imageURL = "data:" + mime + ";base64," + consolidated
	}

	id, err := s.invoices.SaveInvoice(ctx, repository.SaveInvoiceRequest{
		Identity:  identity,
		Invoice:   record,
		UserID:    userID,
		UserEmail: req.UserEmail,
		ImageURL:  imageURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, sess.ID); err != nil {
		s.logger.Warn("session.save.cleanup_failed", "session_id", sess.ID, "error", err)
	}

	out := &SaveOutcome{
		Success:   true,
		Identity:  identity,
		InvoiceID: id,
		Status:    string(status),
	}
	switch status {
	case constants.ValidationManualReview:
		out.NextSteps = []string{
			"the invoice was stored for manual review",
			"an operator will complete the missing fields",
		}
		out.Message = "invoice saved for review"
	default:
		out.NextSteps = []string{"the invoice is queued for fiscal validation"}
		out.Message = "invoice saved"
	}

	s.logger.Info("session.save.done", "session_id", sess.ID, "identity", identity, "invoice_id", id, "status", status)
	return out, nil
}

// loadOwned fetches a session and enforces ownership.
func (s *Service) loadOwned(ctx context.Context, id string, userID int64) (*entity.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: session_id is required", common.ErrValidation)
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, common.WrapError(err, "load session")
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, id)
	}
	if sess.UserID != userID {
		return nil, common.ErrForbidden
	}
	return sess, nil
}

func (s *Service) outcome(sess *entity.Session, usage llm.Usage) *Outcome {
	return &Outcome{
		Success:           sess.State == constants.SessionComplete,
		SessionID:         sess.ID,
		AttemptCount:      sess.AttemptCount,
		MaxAttempts:       sess.MaxAttempts,
		Status:            sess.State,
		Detected:          sess.Detected,
		Missing:           sess.Missing,
		ConsolidatedImage: sess.ConsolidatedImage,
		Message:           stateMessage(sess.State, sess.Missing, sess.MaxAttempts-sess.AttemptCount),
		Cost: Cost{
			TokensUsed: usage.TotalTokens,
			LumisUsed:  usage.CostUSD,
		},
	}
}

// stateMessage builds the user-facing guidance line. attemptsLeft < 0 means
// the caller has no attempt budget (stateless retry).
func stateMessage(state constants.SessionState, missing []constants.FieldKey, attemptsLeft int) string {
	switch state {
	case constants.SessionComplete:
		return "all required fields detected; confirm and save the invoice"
	case constants.SessionManualReview:
		return fmt.Sprintf("attempt limit reached with fields still missing (%s); save for manual review or fill them in by hand",
			joinKeys(missing))
	case constants.SessionNeedsRetry:
		if attemptsLeft < 0 {
			return fmt.Sprintf("still missing %s; retry with a closer photo of those areas", joinKeys(missing))
		}
		return fmt.Sprintf("still missing %s; take a closer photo of those areas (%d attempts left)",
			joinKeys(missing), attemptsLeft)
	case constants.SessionFailed:
		return "extraction failed; start over with a new photo"
	}
	return ""
}

func joinKeys(keys []constants.FieldKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// validateTargeted enforces the retry contract: at least one field, every key
// one of the five recognized ones.
func validateTargeted(keys []constants.FieldKey) error {
	if len(keys) == 0 {
		return fmt.Errorf("%w: missing_fields is required for retry", common.ErrValidation)
	}
	for _, k := range keys {
		if !constants.IsRecognizedField(k) {
			return fmt.Errorf("%w: unrecognized field %q in missing_fields", common.ErrValidation, k)
		}
	}
	return nil
}

// newSessionID produces the short-form session id, e.g. ocr_sess_3fa85f64.
func newSessionID() string {
	return "ocr_sess_" + uuid.NewString()[:8]
}
