package models

import "time"

// Tenant holds the slice of tenant configuration the engine needs: the payee
// identity used when building UPI payment intents. Tenant registration and the
// rest of the tenant profile live in the external administration system.
type Tenant struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	UPIAddr   string    `json:"upi_address" db:"upi_address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
