package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/launch-radar/internal/application/comments"
	"github.com/turtacn/launch-radar/internal/domain/comment"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
)

type CommentHandler struct {
	svc    comments.Service
	logger logging.Logger
}

func NewCommentHandler(svc comments.Service, logger logging.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, logger: logger}
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), comment.Filter{
		ProductIDs: queryList(r, "product"),
		CityIDs:    queryList(r, "city"),
		Status:     comment.Status(r.URL.Query().Get("status")),
	})
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	if list == nil {
		list = []*comment.Comment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CommentHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var in comment.AskInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	c, err := h.svc.Ask(r.Context(), in)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CommentHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	c, err := h.svc.Answer(r.Context(), chi.URLParam(r, "id"), req.Answer)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
