package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/i18n"
	"github.com/utafrali/storefront-browse/internal/session"
	apperrors "github.com/utafrali/storefront-browse/pkg/errors"
	"github.com/utafrali/storefront-browse/pkg/httputil"
	"github.com/utafrali/storefront-browse/pkg/validator"
)

// SessionHandler handles HTTP requests for browse sessions.
type SessionHandler struct {
	registry *session.Registry
	logger   *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(registry *session.Registry, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		logger:   logger,
	}
}

// --- Request DTOs ---

// NavigateRequest replaces the whole address.
type NavigateRequest struct {
	Query string `json:"query" validate:"max=2048"`
}

// SetPageRequest moves to another result page.
type SetPageRequest struct {
	Page int `json:"page" validate:"required,gte=1"`
}

// SuggestionQueryRequest carries the search box text after a keystroke.
type SuggestionQueryRequest struct {
	Text string `json:"text" validate:"max=256"`
}

// SelectSuggestionRequest names the suggestion the shopper picked.
type SelectSuggestionRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
}

// --- Response DTOs ---

// SubmitResponse reports the address after a search box submission.
type SubmitResponse struct {
	Submitted bool         `json:"submitted"`
	View      session.View `json:"view"`
}

// SelectResponse tells the client where a picked suggestion leads.
type SelectResponse struct {
	Redirect string `json:"redirect"`
}

// --- Handlers ---

// CreateSession handles POST /api/v1/browse/sessions. The request's own
// query string is the initial address.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.registry.Create(r.URL.RawQuery)
	w.Header().Set("Location", "/api/v1/browse/sessions/"+s.ID())
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: s.View(language(r))})
}

// GetSession handles GET /api/v1/browse/sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeView(w, r, s)
}

// DeleteSession handles DELETE /api/v1/browse/sessions/{id}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := httputil.ParseUUID(w, id); !ok {
		return
	}
	if err := h.registry.Delete(id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /api/v1/browse/sessions/{id}/refresh.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Refresh()
	h.writeView(w, r, s)
}

// Navigate handles PUT /api/v1/browse/sessions/{id}/address.
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req NavigateRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	s.Controller().Navigate(req.Query)
	h.writeView(w, r, s)
}

// SetFilter handles PATCH /api/v1/browse/sessions/{id}/filters.
func (h *SessionHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var patch domain.Patch
	if err := validator.DecodeAndValidate(w, r, &patch); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if patch.IsEmpty() {
		httputil.WriteError(w, r, apperrors.InvalidInput("patch must set at least one filter"), h.logger)
		return
	}
	s.Controller().SetFilter(patch)
	h.writeView(w, r, s)
}

// ResetFilters handles POST /api/v1/browse/sessions/{id}/filters/reset.
func (h *SessionHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Controller().ResetFilters()
	h.writeView(w, r, s)
}

// RemoveFilter handles DELETE /api/v1/browse/sessions/{id}/filters/{key}.
func (h *SessionHandler) RemoveFilter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	key := domain.FilterKey(chi.URLParam(r, "key"))
	if _, err := s.Controller().RemoveFilter(key); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeView(w, r, s)
}

// SetPage handles PUT /api/v1/browse/sessions/{id}/page.
func (h *SessionHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SetPageRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if _, err := s.Controller().SetPage(req.Page); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeView(w, r, s)
}

// SetSuggestionQuery handles PUT /api/v1/browse/sessions/{id}/suggestions/query.
func (h *SessionHandler) SetSuggestionQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SuggestionQueryRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	s.Suggestions().SetText(req.Text)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.Suggestions().Snapshot()})
}

// DismissSuggestions handles POST /api/v1/browse/sessions/{id}/suggestions/dismiss.
func (h *SessionHandler) DismissSuggestions(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Suggestions().Dismiss()
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.Suggestions().Snapshot()})
}

// SubmitSearch handles POST /api/v1/browse/sessions/{id}/suggestions/submit.
func (h *SessionHandler) SubmitSearch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_, submitted := s.SubmitSearch()
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: SubmitResponse{
		Submitted: submitted,
		View:      s.View(language(r)),
	}})
}

// SelectSuggestion handles POST /api/v1/browse/sessions/{id}/suggestions/select.
func (h *SessionHandler) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SelectSuggestionRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: SelectResponse{
		Redirect: s.SelectSuggestion(req.ProductID),
	}})
}

// --- Helpers ---

// session resolves the {id} URL parameter. On failure the error response is
// already written.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	if _, ok := httputil.ParseUUID(w, id); !ok {
		return nil, false
	}
	s, err := h.registry.Get(id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeView(w http.ResponseWriter, r *http.Request, s *session.Session) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.View(language(r))})
}

// language picks the chip label language from Accept-Language, taking the
// primary subtag of the first entry.
func language(r *http.Request) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return i18n.DefaultLanguage
	}
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	tag, _, _ := strings.Cut(strings.TrimSpace(first), "-")
	if tag == "" {
		return i18n.DefaultLanguage
	}
	return strings.ToLower(tag)
}
