package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/launch-radar/internal/application/escalations"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
)

type EscalationHandler struct {
	svc    escalations.Service
	logger logging.Logger
}

func NewEscalationHandler(svc escalations.Service, logger logging.Logger) *EscalationHandler {
	return &EscalationHandler{svc: svc, logger: logger}
}

// historyHeader is set to "false" when the audit row could not be written.
const historyHeader = "X-History-Recorded"

func (h *EscalationHandler) List(w http.ResponseWriter, r *http.Request) {
	f := escalation.Filter{
		ProductIDs: queryList(r, "product"),
		OpenOnly:   queryBool(r, "open"),
	}
	for _, s := range queryList(r, "status") {
		f.Statuses = append(f.Statuses, escalation.Status(s))
	}

	list, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	if list == nil {
		list = []*escalation.Escalation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *EscalationHandler) Raise(w http.ResponseWriter, r *http.Request) {
	var in escalation.RaiseInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	res, err := h.svc.Raise(r.Context(), in)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (h *EscalationHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *EscalationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var p escalation.StatusChangePatch
	if err := decodeJSON(r, &p); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	res, err := h.svc.ChangeStatus(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *EscalationHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	if entries == nil {
		entries = []*escalation.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeResult(w http.ResponseWriter, status int, res *escalations.Result) {
	if !res.HistoryRecorded {
		w.Header().Set(historyHeader, "false")
	}
	writeJSON(w, status, res)
}
