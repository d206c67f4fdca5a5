package vehicles

import "time"

// DriveType enumerates motorcycle final-drive types.
type DriveType string

const (
	DriveChain DriveType = "CHAIN"
	DriveBelt  DriveType = "BELT"
	DriveShaft DriveType = "SHAFT"
	DriveOther DriveType = "OTHER"
)

// Valid reports whether d is a known drive type.
func (d DriveType) Valid() bool {
	switch d {
	case DriveChain, DriveBelt, DriveShaft, DriveOther:
		return true
	}
	return false
}

// Vehicle is a customer's motorcycle. It is identified to humans by
// plate number or VIN, whichever is present.
type Vehicle struct {
	ID             int64     `json:"id"`
	CustomerID     int64     `json:"customer_id"`
	PlateNo        string    `json:"plate_no,omitempty"`
	VIN            string    `json:"vin,omitempty"`
	Make           string    `json:"make,omitempty"`
	Model          string    `json:"model"`
	Year           *int      `json:"year,omitempty"`
	DisplacementCC *int      `json:"displacement_cc,omitempty"`
	Color          string    `json:"color,omitempty"`
	DriveType      DriveType `json:"drive_type"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ident returns the human-facing identifier: plate, then VIN, then "-".
func (v Vehicle) Ident() string {
	if v.PlateNo != "" {
		return v.PlateNo
	}
	if v.VIN != "" {
		return v.VIN
	}
	return "-"
}

// VehicleInput carries caller-settable vehicle fields.
type VehicleInput struct {
	CustomerID     int64
	PlateNo        string
	VIN            string
	Make           string
	Model          string
	Year           *int
	DisplacementCC *int
	Color          string
	DriveType      DriveType
	Notes          string
}

// ListRequest filters and paginates the vehicle listing.
type ListRequest struct {
	CustomerID int64
	Query      string
	Page       int
	PerPage    int
}
