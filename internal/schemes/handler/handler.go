package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"docverify/internal/schemes/models"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context, filter models.Filter) ([]*models.Scheme, error)
	Get(ctx context.Context, schemeID string) (*models.Scheme, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the catalog routes. They need no session.
func (h *Handler) Register(r chi.Router) {
	r.Get("/schemes", h.HandleList)
	r.Get("/schemes/{id}", h.HandleGet)
}

// HandleList accepts optional category, state, level, district, crop,
// eligibility and q query parameters, plus one parameter per finder tag
// (land, irrig, age, kyc).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q := r.URL.Query()
	filter := models.Filter{
		Category:    strings.TrimSpace(q.Get("category")),
		State:       strings.TrimSpace(q.Get("state")),
		Level:       strings.TrimSpace(q.Get("level")),
		District:    strings.TrimSpace(q.Get("district")),
		Crop:        strings.TrimSpace(q.Get("crop")),
		Eligibility: strings.TrimSpace(q.Get("eligibility")),
		Query:       strings.TrimSpace(q.Get("q")),
	}
	for _, tag := range models.FinderTags {
		if answer := strings.TrimSpace(q.Get(tag)); answer != "" {
			if filter.Answers == nil {
				filter.Answers = make(map[string]string, len(models.FinderTags))
			}
			filter.Answers[tag] = answer
		}
	}

	schemes, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "list schemes failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ListResponse{Schemes: schemes})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	schemeID := chi.URLParam(r, "id")
	scheme, err := h.service.Get(ctx, schemeID)
	if err != nil {
		h.logger.WarnContext(ctx, "get scheme failed", "error", err, "request_id", requestID, "scheme_id", schemeID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, scheme)
}
