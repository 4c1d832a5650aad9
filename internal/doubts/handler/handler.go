package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"docverify/internal/doubts/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

type Service interface {
	Post(ctx context.Context, userID id.UserID, req *models.PostRequest) (*models.Doubt, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Doubt, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the listing route; HandlePost is mounted by the router
// behind the submission throttle.
func (h *Handler) Register(r chi.Router) {
	r.Get("/doubts", h.HandleList)
}

func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.PostRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doubt, err := h.service.Post(ctx, userID, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "post doubt failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, doubt)
}

// HandleList accepts optional district, category and unanswered query
// parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, err := httputil.RequireUserID(ctx, h.logger, requestID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	filter := models.Filter{
		District: q.Get("district"),
		Category: q.Get("category"),
	}
	if raw := q.Get("unanswered"); raw != "" {
		unanswered, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unanswered must be true or false"))
			return
		}
		filter.Unanswered = unanswered
	}

	doubts, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list doubts failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ListResponse{Doubts: doubts})
}
