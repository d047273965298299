// Package server exposes the extraction engine over HTTP. Photos arrive as
// multipart uploads; everything else is JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lumis-app/invoice-ocr/internal/common"
	"github.com/lumis-app/invoice-ocr/internal/session"
)

// SessionService is the orchestration surface the handlers depend on.
type SessionService interface {
	Process(ctx context.Context, userID int64, action session.Action) (*session.Outcome, error)
	Save(ctx context.Context, userID int64, req session.SaveRequest) (*session.SaveOutcome, error)
}

// Exporter produces XLSX workbooks of a user's persisted invoices.
type Exporter interface {
	ExportInvoicesXLSX(ctx context.Context, userID int64, from, to *time.Time) ([]byte, error)
}

type Server struct {
	sessions SessionService
	exporter Exporter
	auth     Authenticator
	logger   *slog.Logger
}

func New(sessions SessionService, exporter Exporter, auth Authenticator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if auth == nil {
		auth = HeaderAuthenticator{}
	}
	return &Server{sessions: sessions, exporter: exporter, auth: auth, logger: logger}
}

// Routes wires the handler tree.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v4/invoices/extract", s.withAuth(s.handleExtract))
	mux.HandleFunc("POST /v4/invoices/extract/retry", s.withAuth(s.handleRetry))
	mux.HandleFunc("POST /v4/invoices/extract/save", s.withAuth(s.handleSave))
	mux.HandleFunc("GET /v4/invoices/export", s.withAuth(s.handleExport))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user User)

func (s *Server) withAuth(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		user, err := s.auth.Authenticate(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx := common.WithRequestID(r.Context(), uuid.NewString())
		ctx = common.WithUserID(ctx, user.ID)
		h(w, r.WithContext(ctx), user)
		s.logger.Debug("http.request.done",
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", user.ID,
			"elapsed_ms", time.Since(start).Milliseconds())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("http.response.encode_failed", "error", err)
	}
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// writeError maps the error taxonomy onto HTTP statuses. Internal details are
// logged, not leaked.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, common.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, common.ErrNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, common.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrProviderExhausted):
		status, code = http.StatusBadGateway, "extraction_failed"
	case errors.Is(err, common.ErrDuplicateInvoice):
		status, code = http.StatusConflict, "duplicate"
	}

	if status >= 500 {
		s.logger.Error("http.request.failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Info("http.request.rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	s.writeJSON(w, status, errorBody{Error: msg, Code: code})
}
