package workorders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sunbike-erp/sunbike-erp/internal/platform/httpx"
	"github.com/sunbike-erp/sunbike-erp/internal/shared"
)

// Handler wires HTTP endpoints for work orders and their line items.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers work order routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{orderID}", h.get)
	r.Put("/{orderID}", h.update)
	r.Delete("/{orderID}", h.delete)
	r.Post("/{orderID}/status", h.setStatus)
	r.Post("/{orderID}/recompute", h.recompute)

	r.Post("/{orderID}/parts", h.addPart)
	r.Put("/{orderID}/parts/{partID}", h.updatePart)
	r.Delete("/{orderID}/parts/{partID}", h.deletePart)

	r.Post("/{orderID}/labor", h.addLabor)
	r.Put("/{orderID}/labor/{laborID}", h.updateLabor)
	r.Delete("/{orderID}/labor/{laborID}", h.deleteLabor)
}

type createOrderRequest struct {
	BranchID          int64      `json:"branch_id" validate:"required"`
	VehicleID         int64      `json:"vehicle_id" validate:"required"`
	Status            Status     `json:"status" validate:"omitempty,oneof=RECEIVED IN_PROGRESS WAITING_PARTS DONE RELEASED CANCELED"`
	InDatetime        *time.Time `json:"in_datetime"`
	AssignedTo        string     `json:"assigned_to"`
	OdometerIn        *int64     `json:"odometer_in" validate:"omitempty,gte=0"`
	CustomerComplaint string     `json:"customer_complaint"`
	Diagnosis         string     `json:"diagnosis"`
	DiscountAmount    int64      `json:"discount_amount" validate:"gte=0"`
}

type updateOrderRequest struct {
	AssignedTo        *string    `json:"assigned_to"`
	InDatetime        *time.Time `json:"in_datetime"`
	OutDatetime       *time.Time `json:"out_datetime"`
	OdometerIn        *int64     `json:"odometer_in" validate:"omitempty,gte=0"`
	OdometerOut       *int64     `json:"odometer_out" validate:"omitempty,gte=0"`
	CustomerComplaint *string    `json:"customer_complaint"`
	Diagnosis         *string    `json:"diagnosis"`
	WorkDetail        *string    `json:"work_detail"`
	Recommendations   *string    `json:"recommendations"`
	WarrantyUntil     *time.Time `json:"warranty_until"`
	DiscountAmount    *int64     `json:"discount_amount" validate:"omitempty,gte=0"`
}

type statusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type partRequest struct {
	PartName  string  `json:"part_name" validate:"required,max=160"`
	Qty       float64 `json:"qty" validate:"omitempty,gt=0"`
	UnitPrice int64   `json:"unit_price" validate:"gte=0"`
}

type laborRequest struct {
	LaborName string `json:"labor_name" validate:"required,max=160"`
	Minutes   *int   `json:"minutes" validate:"omitempty,gte=0"`
	Price     int64  `json:"price" validate:"gte=0"`
}

type listResponse struct {
	Orders     []WorkOrder       `json:"orders"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	req := ListRequest{
		Query:   r.URL.Query().Get("q"),
		Status:  Status(r.URL.Query().Get("status")),
		Page:    page,
		PerPage: perPage,
	}
	orders, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if orders == nil {
		orders = []WorkOrder{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Orders:     orders,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Create(r.Context(), CreateInput{
		BranchID:          req.BranchID,
		VehicleID:         req.VehicleID,
		Status:            req.Status,
		InDatetime:        req.InDatetime,
		AssignedTo:        req.AssignedTo,
		OdometerIn:        req.OdometerIn,
		CustomerComplaint: req.CustomerComplaint,
		Diagnosis:         req.Diagnosis,
		DiscountAmount:    req.DiscountAmount,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Update(r.Context(), id, UpdateInput(req))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.service.SetStatus(r.Context(), id, req.Status); err != nil {
		h.respondError(w, r, err)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// recompute re-derives the aggregates from the stored line items. Meant
// for repairing orders whose totals drifted, for example after a manual
// database edit.
func (h *Handler) recompute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	if err := h.service.Recompute(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) addPart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodePart(w, r)
	if !ok {
		return
	}
	part, err := h.service.AddPart(r.Context(), id, PartInput(req))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, part)
}

func (h *Handler) updatePart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	partID, ok := h.pathID(w, r, "partID")
	if !ok {
		return
	}
	req, ok := h.decodePart(w, r)
	if !ok {
		return
	}
	part, err := h.service.UpdatePart(r.Context(), id, partID, PartInput(req))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, part)
}

func (h *Handler) deletePart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	partID, ok := h.pathID(w, r, "partID")
	if !ok {
		return
	}
	if err := h.service.DeletePart(r.Context(), id, partID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addLabor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeLabor(w, r)
	if !ok {
		return
	}
	labor, err := h.service.AddLabor(r.Context(), id, LaborInput(req))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, labor)
}

func (h *Handler) updateLabor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	laborID, ok := h.pathID(w, r, "laborID")
	if !ok {
		return
	}
	req, ok := h.decodeLabor(w, r)
	if !ok {
		return
	}
	labor, err := h.service.UpdateLabor(r.Context(), id, laborID, LaborInput(req))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, labor)
}

func (h *Handler) deleteLabor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	laborID, ok := h.pathID(w, r, "laborID")
	if !ok {
		return
	}
	if err := h.service.DeleteLabor(r.Context(), id, laborID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodePart(w http.ResponseWriter, r *http.Request) (partRequest, bool) {
	var req partRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) decodeLabor(w http.ResponseWriter, r *http.Request) (laborRequest, bool) {
	var req laborRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return h.pathID(w, r, "orderID")
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "path id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrOrderNoConflict):
		httpx.Problem(w, http.StatusConflict, "Order Number Conflict", "order number allocation conflicted, retry the request")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("work order request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
