package entity

import "time"

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	PhotoURL  string    `json:"photo_url" db:"photo_url"`
	Role      Role      `json:"role" db:"role"`
	Fraud     bool      `json:"fraud" db:"fraud"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type VendorStatus string

const (
	VendorStatusPending  VendorStatus = "pending"
	VendorStatusApproved VendorStatus = "approved"
	VendorStatusRejected VendorStatus = "rejected"
)

// Vendor is an application to sell tickets on the marketplace.
type Vendor struct {
	ID        string       `json:"id" db:"id"`
	Email     string       `json:"email" db:"email"`
	Name      string       `json:"name" db:"name"`
	Phone     string       `json:"phone" db:"phone"`
	Address   string       `json:"address" db:"address"`
	Status    VendorStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
