package branches

import "time"

// Branch is a physical service-center location that owns work orders.
type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BranchInput carries caller-settable branch fields.
type BranchInput struct {
	Name    string
	Phone   string
	Address string
}
