package entity

import "time"

// Location representa una sucursal donde se mantiene stock y se vende.
type Location struct {
	ID        string
	Code      string
	Name      string
	Address   string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
