package payments

import "time"

// Method enumerates how a customer paid.
type Method string

const (
	MethodCard     Method = "CARD"
	MethodCash     Method = "CASH"
	MethodTransfer Method = "TRANSFER"
	MethodOther    Method = "OTHER"
)

// Valid reports whether m is a known payment method.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodCash, MethodTransfer, MethodOther:
		return true
	}
	return false
}

// Payment records money received against a work order. Payments are a
// ledger only; they never feed back into the order totals.
type Payment struct {
	ID          int64     `json:"id"`
	WorkOrderID int64     `json:"work_order_id"`
	Method      Method    `json:"method"`
	Amount      int64     `json:"amount"`
	PaidAt      time.Time `json:"paid_at"`
	Note        string    `json:"note,omitempty"`
	Reference   string    `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateInput carries caller-settable payment fields. PaidAt defaults
// to the current time when omitted.
type CreateInput struct {
	Method Method
	Amount int64
	PaidAt *time.Time
	Note   string
}
