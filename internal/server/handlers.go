package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/common"
	"github.com/lumis-app/invoice-ocr/internal/entity"
	"github.com/lumis-app/invoice-ocr/internal/session"
)

// multipart bodies are capped slightly above the image limit to leave room
// for the other form fields.
const maxUploadBytes = constants.MaxImageBytes + 1<<20

// handleExtract dispatches on the action form field. No session_id (or
// action=initial) starts a new session; consolidate touches no model.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request, user User) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	action := r.FormValue("action")
	sessionID := r.FormValue("session_id")

	if action == "consolidate" {
		if sessionID == "" {
			s.writeError(w, r, fmt.Errorf("%w: session_id is required for consolidate", common.ErrValidation))
			return
		}
		out, err := s.sessions.Process(r.Context(), user.ID, session.Consolidate{SessionID: sessionID})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, out)
		return
	}

	image, mime, err := readImage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var act session.Action
	switch {
	case action == "retry" || (action == "" && sessionID != ""):
		if sessionID == "" {
			s.writeError(w, r, fmt.Errorf("%w: session_id is required for retry", common.ErrValidation))
			return
		}
		targeted, perr := parseTargeted(r)
		if perr != nil {
			s.writeError(w, r, perr)
			return
		}
		act = session.Retry{SessionID: sessionID, Image: image, MimeType: mime, Targeted: targeted}
	case action == "" || action == "initial":
		act = session.Initial{Image: image, MimeType: mime}
	default:
		s.writeError(w, r, fmt.Errorf("%w: unknown action %q", common.ErrValidation, action))
		return
	}

	out, err := s.sessions.Process(r.Context(), user.ID, act)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request, user User) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	image, mime, err := readImage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// session_id is optional here: stateless callers carry their accumulated
	// fields in previous_data instead of a cached session.
	sessionID := r.FormValue("session_id")

	targeted, err := parseTargeted(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var previous *entity.ExtractedFields
	if raw := r.FormValue("previous_data"); raw != "" {
		var p entity.ExtractedFields
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: previous_data is not valid JSON", common.ErrValidation))
			return
		}
		previous = &p
	}

	out, err := s.sessions.Process(r.Context(), user.ID, session.Retry{
		SessionID: sessionID,
		Image:     image,
		MimeType:  mime,
		Targeted:  targeted,
		Previous:  previous,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

type saveBody struct {
	SessionID         string                  `json:"session_id"`
	ValidationStatus  string                  `json:"validation_status"`
	InvoiceData       *entity.ExtractedFields `json:"invoice_data,omitempty"`
	ConsolidatedImage string                  `json:"consolidated_image,omitempty"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, user User) {
	var body saveBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid JSON body", common.ErrValidation))
		return
	}
	if body.SessionID == "" {
		s.writeError(w, r, fmt.Errorf("%w: session_id is required", common.ErrValidation))
		return
	}

	status := constants.ValidationStatus(body.ValidationStatus)
	switch status {
	case "", constants.ValidationComplete, constants.ValidationManualReview:
	default:
		s.writeError(w, r, fmt.Errorf("%w: unknown validation_status %q", common.ErrValidation, body.ValidationStatus))
		return
	}

	out, err := s.sessions.Save(r.Context(), user.ID, session.SaveRequest{
		SessionID:         body.SessionID,
		UserEmail:         user.Email,
		ValidationStatus:  status,
		Fields:            body.InvoiceData,
		ConsolidatedImage: body.ConsolidatedImage,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	code := http.StatusOK
	if !out.Success {
		code = http.StatusConflict
	}
	s.writeJSON(w, code, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, user User) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.exporter.ExportInvoicesXLSX(r.Context(), user.ID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("invoices-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("http.export.write_failed", "error", err)
	}
}

func parseTargeted(r *http.Request) ([]constants.FieldKey, error) {
	raw := r.FormValue("missing_fields")
	if raw == "" {
		return nil, nil
	}
	var targeted []constants.FieldKey
	if err := json.Unmarshal([]byte(raw), &targeted); err != nil {
		return nil, fmt.Errorf("%w: missing_fields must be a JSON array of field names", common.ErrValidation)
	}
	return targeted, nil
}

// readImage extracts and validates the uploaded photo from a multipart form.
func readImage(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", fmt.Errorf("%w: could not parse upload: %v", common.ErrValidation, err)
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, "", fmt.Errorf("%w: image file is required", common.ErrValidation)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading upload: %v", common.ErrValidation, err)
	}

	mime, err := sniffImage(data)
	if err != nil {
		return nil, "", err
	}
	return data, mime, nil
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s date %q, want YYYY-MM-DD", common.ErrValidation, name, raw)
	}
	return &t, nil
}
