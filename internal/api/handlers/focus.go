package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nexh/focus/internal/api/middleware"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/service"
)

type FocusHandler struct {
	svc *service.FocusService
	now func() time.Time
}

func NewFocusHandler(svc *service.FocusService) *FocusHandler {
	return &FocusHandler{svc: svc, now: time.Now}
}

// Get returns the authenticated tenant's focus list. The date defaults to
// the current UTC day.
func (h *FocusHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	date := h.now()
	if s := q.Get("date"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = d
	}

	var opts service.GenerateOpts
	var err error
	if opts.Drafts, err = boolParam(q.Get("drafts")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid drafts")
		return
	}
	if opts.Refresh, err = boolParam(q.Get("refresh")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid refresh")
		return
	}

	list, err := h.svc.Generate(r.Context(), tenant.ID, date, opts)
	if err != nil {
		writeServiceError(w, err, "failed to generate focus list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func boolParam(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
