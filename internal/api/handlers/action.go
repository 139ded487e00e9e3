package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/api/middleware"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/service"
)

// defaultActionLookback bounds GET /v1/actions when since is omitted.
const defaultActionLookback = 30 * 24 * time.Hour

type ActionHandler struct {
	svc *service.ActionLogService
	now func() time.Time
}

func NewActionHandler(svc *service.ActionLogService) *ActionHandler {
	return &ActionHandler{svc: svc, now: time.Now}
}

type recordActionRequest struct {
	CandidateID string     `json:"candidate_id"`
	Channel     string     `json:"channel,omitempty"`
	Note        string     `json:"note,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

type listActionsResponse struct {
	Actions []domain.ActionLogEntry `json:"actions"`
	Count   int                     `json:"count"`
}

func (h *ActionHandler) Record(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req recordActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid candidate_id")
		return
	}

	entry := &domain.ActionLogEntry{
		CandidateID: candidateID,
		Channel:     domain.Channel(req.Channel),
		Note:        req.Note,
	}
	if req.SentAt != nil {
		entry.CreatedAt = req.SentAt.UTC()
	}

	if err := h.svc.Record(r.Context(), entry, tenant.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrActionCandidateMissing),
			errors.Is(err, service.ErrActionInvalidChannel),
			errors.Is(err, service.ErrActionInFuture):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeServiceError(w, err, "failed to record action")
		}
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	now := h.now().UTC()
	from := domain.StartOfDay(now.Add(-defaultActionLookback))
	if s := r.URL.Query().Get("since"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		from = d
	}

	entries, err := h.svc.List(r.Context(), tenant.ID, from, now.Add(time.Minute))
	if err != nil {
		if errors.Is(err, service.ErrActionInvalidRange) {
			writeError(w, http.StatusBadRequest, "since must not be in the future")
			return
		}
		writeServiceError(w, err, "failed to list actions")
		return
	}

	writeJSON(w, http.StatusOK, listActionsResponse{Actions: entries, Count: len(entries)})
}
