package vehicles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sunbike-erp/sunbike-erp/internal/platform/httpx"
	"github.com/sunbike-erp/sunbike-erp/internal/shared"
)

// Handler exposes vehicle endpoints.
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

// MountRoutes registers the vehicle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{vehicleID}", h.get)
	r.Put("/{vehicleID}", h.update)
	r.Delete("/{vehicleID}", h.delete)
}

type vehicleRequest struct {
	CustomerID     int64     `json:"customer_id" validate:"required,gt=0"`
	PlateNo        string    `json:"plate_no" validate:"max=30"`
	VIN            string    `json:"vin" validate:"max=50"`
	Make           string    `json:"make" validate:"max=100"`
	Model          string    `json:"model" validate:"required,max=100"`
	Year           *int      `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	DisplacementCC *int      `json:"displacement_cc" validate:"omitempty,gt=0"`
	Color          string    `json:"color" validate:"max=50"`
	DriveType      DriveType `json:"drive_type" validate:"omitempty,oneof=CHAIN BELT SHAFT OTHER"`
	Notes          string    `json:"notes"`
}

type listResponse struct {
	Vehicles   []Vehicle         `json:"vehicles"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) decode(r *http.Request) (VehicleInput, error) {
	var req vehicleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return VehicleInput{}, err
	}
	if err := h.validate.Struct(req); err != nil {
		return VehicleInput{}, err
	}
	return VehicleInput(req), nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decode(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	v, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := vehicleID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "vehicle id must be a positive integer")
		return
	}
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	customerID, _ := strconv.ParseInt(q.Get("customer_id"), 10, 64)

	items, total, err := h.service.List(r.Context(), ListRequest{
		CustomerID: customerID,
		Query:      q.Get("q"),
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []Vehicle{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Vehicles:   items,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := vehicleID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "vehicle id must be a positive integer")
		return
	}
	in, err := h.decode(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	v, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := vehicleID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "vehicle id must be a positive integer")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrProtected):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		h.logger.Error("vehicle request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

func vehicleID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "vehicleID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid vehicle id")
	}
	return id, nil
}
