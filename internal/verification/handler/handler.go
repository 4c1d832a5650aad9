package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

type Service interface {
	Submit(ctx context.Context, userID id.UserID, req *models.SubmitRequest) (*models.Record, error)
	List(ctx context.Context, userID id.UserID) ([]*models.Record, error)
	Get(ctx context.Context, userID id.UserID, verificationID id.VerificationID) (*models.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read routes. The submit route is mounted separately via
// HandleSubmit so the router can place it behind the submission throttle.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verifications", h.HandleList)
	r.Get("/verifications/{id}", h.HandleGet)
}

// HandleSubmit answers 201 with the completed record whatever its status; a
// verification that could not be completed is still a stored result.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Submit(ctx, userID, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "submit verification failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list verifications failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ListResponse{Verifications: records})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	verificationID, err := httputil.PathParam(r, "id", id.ParseVerificationID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid verification id"))
		return
	}

	record, err := h.service.Get(ctx, userID, verificationID)
	if err != nil {
		h.logger.WarnContext(ctx, "get verification failed", "error", err,
			"request_id", requestID, "verification_id", verificationID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record)
}
