package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docverify/internal/idcard/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// Service returns domain objects; ownership checks live in the service.
type Service interface {
	Create(ctx context.Context, owner id.UserID, req *models.CreateCardRequest) (*models.IDCard, error)
	List(ctx context.Context, owner id.UserID) ([]*models.IDCard, error)
	Get(ctx context.Context, owner id.UserID, cardID id.CardID) (*models.IDCard, error)
	Delete(ctx context.Context, owner id.UserID, cardID id.CardID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/id-cards", h.HandleCreate)
	r.Get("/id-cards", h.HandleList)
	r.Get("/id-cards/{id}", h.HandleGet)
	r.Delete("/id-cards/{id}", h.HandleDelete)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.CreateCardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	card, err := h.service.Create(ctx, userID, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "create id card failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, card)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cards, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list id cards failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.CardListResponse{Cards: cards})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cardID, err := httputil.PathParam(r, "id", id.ParseCardID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid card id"))
		return
	}

	card, err := h.service.Get(ctx, userID, cardID)
	if err != nil {
		h.logger.WarnContext(ctx, "get id card failed", "error", err, "request_id", requestID, "card_id", cardID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, card)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cardID, err := httputil.PathParam(r, "id", id.ParseCardID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid card id"))
		return
	}

	if err := h.service.Delete(ctx, userID, cardID); err != nil {
		h.logger.WarnContext(ctx, "delete id card failed", "error", err, "request_id", requestID, "card_id", cardID.String())
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
