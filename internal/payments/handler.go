package payments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sunbike-erp/sunbike-erp/internal/platform/httpx"
)

// Handler exposes payment endpoints nested under a work order.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers the payment routes. The router mounts this
// under /workorders/{orderID}/payments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{paymentID}", h.get)
	r.Delete("/{paymentID}", h.delete)
}

type createPaymentRequest struct {
	Method Method     `json:"method" validate:"omitempty,oneof=CARD CASH TRANSFER OTHER"`
	Amount int64      `json:"amount" validate:"required,gt=0"`
	PaidAt *time.Time `json:"paid_at"`
	Note   string     `json:"note"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "order id must be a positive integer")
		return
	}
	var req createPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	p, err := h.service.Create(r.Context(), orderID, CreateInput(req))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "order id must be a positive integer")
		return
	}
	items, err := h.service.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []Payment{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "order id must be a positive integer")
		return
	}
	paymentID, err := pathID(r, "paymentID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "payment id must be a positive integer")
		return
	}
	p, err := h.service.Get(r.Context(), orderID, paymentID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "order id must be a positive integer")
		return
	}
	paymentID, err := pathID(r, "paymentID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "payment id must be a positive integer")
		return
	}
	if err := h.service.Delete(r.Context(), orderID, paymentID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOrderNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		h.logger.Error("payment request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
