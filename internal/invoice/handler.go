package invoice

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sunbike-erp/sunbike-erp/internal/platform/httpx"
)

// Handler serves invoice PDFs.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// RenderInvoice streams the invoice PDF for a work order.
func (h *Handler) RenderInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "order id must be a positive integer")
		return
	}

	pdf, orderNo, err := h.service.Render(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("invoice render failed", "order_id", orderID, "error", err)
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "could not produce the invoice document")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="sunbike_%s.pdf"`, orderNo))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	if _, err := w.Write(pdf); err != nil {
		h.logger.Warn("invoice write aborted", "order_id", orderID, "error", err)
	}
}
