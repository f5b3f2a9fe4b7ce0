package salespoints

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mitracetak/mitra-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for sales points.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs salespoints handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers salespoints routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales/{salesID}/points", h.handleGetBySales)
	r.Get("/sales/recap", h.handleRecap)
}

func (h *Handler) handleGetBySales(w http.ResponseWriter, r *http.Request) {
	salesID, err := strconv.ParseInt(chi.URLParam(r, "salesID"), 10, 64)
	if err != nil || salesID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid sales id")
		return
	}
	points, err := h.service.GetBySales(r.Context(), salesID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *Handler) handleRecap(w http.ResponseWriter, r *http.Request) {
	recap, err := h.service.GetRecap(r.Context())
	if err != nil {
		h.logger.Error("sales recap", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, recap)
}
