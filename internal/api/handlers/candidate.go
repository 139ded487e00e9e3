package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nexh/focus/internal/api/middleware"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/service"
)

const defaultCandidatePageSize = 100

type CandidateHandler struct {
	svc   *service.CandidateService
	focus *service.FocusService
}

func NewCandidateHandler(svc *service.CandidateService, focus *service.FocusService) *CandidateHandler {
	return &CandidateHandler{svc: svc, focus: focus}
}

// invalidateFocus drops today's cached list after a change that can alter it.
func (h *CandidateHandler) invalidateFocus(r *http.Request, tenantID uuid.UUID) {
	if h.focus != nil {
		h.focus.Invalidate(r.Context(), tenantID, time.Now())
	}
}

type createCandidateRequest struct {
	Name              string         `json:"name"`
	Phone             string         `json:"phone,omitempty"`
	Status            string         `json:"status,omitempty"`
	LastInteractionAt *time.Time     `json:"last_interaction_at,omitempty"`
	Attributes        map[string]any `json:"attributes,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type recordInteractionRequest struct {
	At *time.Time `json:"at,omitempty"`
}

type listCandidatesResponse struct {
	Candidates []domain.Candidate `json:"candidates"`
	Count      int                `json:"count"`
}

func isCandidateValidationError(err error) bool {
	return errors.Is(err, service.ErrCandidateNameMissing) ||
		errors.Is(err, service.ErrCandidateInvalidStatus) ||
		errors.Is(err, service.ErrInteractionInFuture)
}

func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createCandidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := &domain.Candidate{
		Name:              req.Name,
		Phone:             req.Phone,
		Status:            domain.CandidateStatus(req.Status),
		LastInteractionAt: req.LastInteractionAt,
		Attributes:        req.Attributes,
	}
	if err := h.svc.Create(r.Context(), c, tenant.ID); err != nil {
		if isCandidateValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err, "failed to create candidate")
		return
	}
	h.invalidateFocus(r, tenant.ID)

	writeJSON(w, http.StatusCreated, c)
}

func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	opts := domain.CandidateListOpts{Limit: defaultCandidatePageSize}
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := domain.CandidateStatus(s)
		opts.Status = &status
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = n
	}
	if o := q.Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = n
	}

	list, err := h.svc.List(r.Context(), tenant.ID, opts)
	if err != nil {
		if isCandidateValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err, "failed to list candidates")
		return
	}

	writeJSON(w, http.StatusOK, listCandidatesResponse{Candidates: list, Count: len(list)})
}

func (h *CandidateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}

	c, err := h.svc.GetByID(r.Context(), id, tenant.ID)
	if err != nil {
		writeServiceError(w, err, "failed to get candidate")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CandidateHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), id, tenant.ID, domain.CandidateStatus(req.Status)); err != nil {
		if isCandidateValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err, "failed to update candidate status")
		return
	}
	h.invalidateFocus(r, tenant.ID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *CandidateHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}

	var req recordInteractionRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var at time.Time
	if req.At != nil {
		at = *req.At
	}

	if err := h.svc.RecordInteraction(r.Context(), id, tenant.ID, at); err != nil {
		if isCandidateValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err, "failed to record interaction")
		return
	}
	h.invalidateFocus(r, tenant.ID)

	w.WriteHeader(http.StatusNoContent)
}
