package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sunbike-erp/sunbike-erp/internal/branches"
	"github.com/sunbike-erp/sunbike-erp/internal/customers"
	"github.com/sunbike-erp/sunbike-erp/internal/invoice"
	"github.com/sunbike-erp/sunbike-erp/internal/payments"
	"github.com/sunbike-erp/sunbike-erp/internal/vehicles"
	"github.com/sunbike-erp/sunbike-erp/internal/workorders"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	BranchHandler    *branches.Handler
	CustomerHandler  *customers.Handler
	VehicleHandler   *vehicles.Handler
	WorkOrderHandler *workorders.Handler
	PaymentHandler   *payments.Handler
	InvoiceHandler   *invoice.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/branches", params.BranchHandler.MountRoutes)
	r.Route("/customers", params.CustomerHandler.MountRoutes)
	r.Route("/vehicles", params.VehicleHandler.MountRoutes)
	r.Route("/workorders", func(r chi.Router) {
		params.WorkOrderHandler.MountRoutes(r)
		r.Route("/{orderID}/payments", params.PaymentHandler.MountRoutes)
		if params.InvoiceHandler != nil {
			r.Get("/{orderID}/invoice.pdf", params.InvoiceHandler.RenderInvoice)
		}
	})

	return r
}
