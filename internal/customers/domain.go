package customers

import "time"

// Customer is a shop customer who may own several vehicles.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerInput carries caller-settable customer fields.
type CustomerInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Memo    string
}

// ListRequest filters and paginates the customer listing.
type ListRequest struct {
	Query   string
	Page    int
	PerPage int
}
