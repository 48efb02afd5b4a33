package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"greenlight/pkg/platform/httputil"
	"greenlight/pkg/platform/middleware/admin"
	"greenlight/pkg/requestcontext"
)

// TrustRefresher is satisfied by trust.Refresher.
type TrustRefresher interface {
	Refresh(ctx context.Context) error
	FetchedAt() time.Time
}

// AdminHandler serves operator endpoints. Mount it behind admin.RequireAdminToken.
type AdminHandler struct {
	refresher TrustRefresher
	logger    *slog.Logger
}

func NewAdmin(refresher TrustRefresher, logger *slog.Logger) *AdminHandler {
	if refresher == nil {
		panic("handler.NewAdmin: refresher is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AdminHandler{refresher: refresher, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/admin/trust", h.HandleTrustStatus)
	r.Post("/admin/trust/refresh", h.HandleTrustRefresh)
}

type TrustStatusResponse struct {
	Loaded    bool       `json:"loaded"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

func (h *AdminHandler) status() TrustStatusResponse {
	at := h.refresher.FetchedAt()
	if at.IsZero() {
		return TrustStatusResponse{}
	}
	return TrustStatusResponse{Loaded: true, FetchedAt: &at}
}

func (h *AdminHandler) HandleTrustStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.status())
}

// HandleTrustRefresh fetches the trust list now instead of waiting for the
// next scheduled refresh. A failed refresh keeps the previous list.
func (h *AdminHandler) HandleTrustRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.refresher.Refresh(ctx); err != nil {
		h.logger.WarnContext(ctx, "manual trust list refresh failed",
			"actor", admin.ActorID(ctx),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "manual trust list refresh",
		"actor", admin.ActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, h.status())
}
