package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/launch-radar/internal/application/blockers"
	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
)

type BlockerHandler struct {
	svc    blockers.Service
	logger logging.Logger
}

func NewBlockerHandler(svc blockers.Service, logger logging.Logger) *BlockerHandler {
	return &BlockerHandler{svc: svc, logger: logger}
}

// BulkUpdateResponse lists the blockers written. On a partial failure it is
// returned alongside the error code.
type BulkUpdateResponse struct {
	Updated []*blocker.Blocker `json:"updated"`
	Error   *ErrorResponse     `json:"error,omitempty"`
}

// List accepts product and market filters and unresolved=true.
func (h *BlockerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), blocker.Filter{
		ProductIDs:     queryList(r, "product"),
		MarketIDs:      queryList(r, "market"),
		UnresolvedOnly: queryBool(r, "unresolved"),
	})
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	if list == nil {
		list = []*blocker.Blocker{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BlockerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in blocker.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	b, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BlockerHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var p blocker.BulkUpdatePatch
	if err := decodeJSON(r, &p); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	updated, err := h.svc.BulkUpdate(r.Context(), p)
	if err != nil && len(updated) == 0 {
		writeAppError(w, h.logger, r, err)
		return
	}
	if err != nil {
		h.logger.Warn("bulk blocker update partially applied",
			logging.Int("applied", len(updated)),
			logging.Int("requested", len(p.IDs)),
			logging.Err(err))
		writeJSON(w, http.StatusMultiStatus, BulkUpdateResponse{
			Updated: updated,
			Error:   &ErrorResponse{Code: string(errorCode(err)), Message: "bulk edit stopped before completing"},
		})
		return
	}
	writeJSON(w, http.StatusOK, BulkUpdateResponse{Updated: updated})
}

func (h *BlockerHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Summary is mounted under /products/{id}/blocker-summary.
func (h *BlockerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
