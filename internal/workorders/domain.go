package workorders

import (
	"time"
)

// Status enumerates work order statuses. Transitions are deliberately
// unconstrained: any status may be set to any other.
type Status string

const (
	StatusReceived     Status = "RECEIVED"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusWaitingParts Status = "WAITING_PARTS"
	StatusDone         Status = "DONE"
	StatusReleased     Status = "RELEASED"
	StatusCanceled     Status = "CANCELED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusWaitingParts, StatusDone, StatusReleased, StatusCanceled:
		return true
	}
	return false
}

// WorkOrder is a repair ticket tracking a vehicle's visit from intake to
// release. The four aggregate fields are system-owned: they are written
// only by the totals recompute path.
type WorkOrder struct {
	ID                int64      `json:"id"`
	OrderNo           string     `json:"order_no"`
	BranchID          int64      `json:"branch_id"`
	VehicleID         int64      `json:"vehicle_id"`
	Status            Status     `json:"status"`
	InDatetime        time.Time  `json:"in_datetime"`
	OutDatetime       *time.Time `json:"out_datetime,omitempty"`
	AssignedTo        string     `json:"assigned_to,omitempty"`
	OdometerIn        *int64     `json:"odometer_in,omitempty"`
	OdometerOut       *int64     `json:"odometer_out,omitempty"`
	CustomerComplaint string     `json:"customer_complaint,omitempty"`
	Diagnosis         string     `json:"diagnosis,omitempty"`
	WorkDetail        string     `json:"work_detail,omitempty"`
	Recommendations   string     `json:"recommendations,omitempty"`
	WarrantyUntil     *time.Time `json:"warranty_until,omitempty"`

	DiscountAmount int64 `json:"discount_amount"`
	SubtotalParts  int64 `json:"subtotal_parts"`
	SubtotalLabor  int64 `json:"subtotal_labor"`
	TaxAmount      int64 `json:"tax_amount"`
	TotalAmount    int64 `json:"total_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkPart is a parts line item. LineTotal is derived from qty and unit
// price at save time and is never independently settable.
type WorkPart struct {
	ID          int64   `json:"id"`
	WorkOrderID int64   `json:"work_order_id"`
	PartName    string  `json:"part_name"`
	Qty         float64 `json:"qty"`
	UnitPrice   int64   `json:"unit_price"`
	LineTotal   int64   `json:"line_total"`
}

// WorkLabor is a labor line item.
type WorkLabor struct {
	ID          int64  `json:"id"`
	WorkOrderID int64  `json:"work_order_id"`
	LaborName   string `json:"labor_name"`
	Minutes     *int   `json:"minutes,omitempty"`
	Price       int64  `json:"price"`
}

// PaymentLine is the read-only payment projection included in the order
// detail. Payments are written through the payments module and never feed
// back into totals.
type PaymentLine struct {
	ID        int64     `json:"id"`
	Method    string    `json:"method"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	Note      string    `json:"note,omitempty"`
	Reference string    `json:"reference,omitempty"`
}

// Detail is a work order with its line items and payment ledger.
type Detail struct {
	WorkOrder
	Parts         []WorkPart    `json:"parts"`
	Labor         []WorkLabor   `json:"labor"`
	Payments      []PaymentLine `json:"payments"`
	PaymentsTotal int64         `json:"payments_total"`
}

// CreateInput carries caller-settable fields for a new work order. Any
// caller-supplied order number or aggregate value is ignored.
type CreateInput struct {
	BranchID          int64
	VehicleID         int64
	Status            Status
	InDatetime        *time.Time
	AssignedTo        string
	OdometerIn        *int64
	CustomerComplaint string
	Diagnosis         string
	DiscountAmount    int64
}

// UpdateInput carries caller-settable fields for updating a work order.
// Nil pointers leave the stored value untouched.
type UpdateInput struct {
	AssignedTo        *string
	InDatetime        *time.Time
	OutDatetime       *time.Time
	OdometerIn        *int64
	OdometerOut       *int64
	CustomerComplaint *string
	Diagnosis         *string
	WorkDetail        *string
	Recommendations   *string
	WarrantyUntil     *time.Time
	DiscountAmount    *int64
}

// PartInput carries caller-settable fields for a parts line item.
type PartInput struct {
	PartName  string
	Qty       float64
	UnitPrice int64
}

// LaborInput carries caller-settable fields for a labor line item.
type LaborInput struct {
	LaborName string
	Minutes   *int
	Price     int64
}

// ListRequest filters and paginates the order listing.
type ListRequest struct {
	Query   string
	Status  Status
	Page    int
	PerPage int
}
