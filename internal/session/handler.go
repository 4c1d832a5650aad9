package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

type Issuer interface {
	Issue(ctx context.Context) (*Token, error)
}

type Handler struct {
	issuer  Issuer
	auditor *audit.Logger
	logger  *slog.Logger
}

func NewHandler(issuer Issuer, auditor *audit.Logger, logger *slog.Logger) *Handler {
	return &Handler{issuer: issuer, auditor: auditor, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/anonymous", h.HandleAnonymous)
}

func (h *Handler) HandleAnonymous(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	token, err := h.issuer.Issue(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue anonymous session failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "anonymous session issued",
		"request_id", requestID,
		"user_id", token.UserID.String(),
	)
	h.auditor.Log(ctx, audit.Event{
		UserID:  token.UserID,
		Subject: token.SessionID.String(),
		Action:  string(audit.EventSessionIssued),
	})
	httputil.WriteJSON(w, http.StatusCreated, token)
}
