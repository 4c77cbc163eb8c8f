package entity

import "time"

// Tipos de movimiento de fidelización.
const (
	LoyaltyAccrual    = "acumulacion"
	LoyaltyAdjustment = "ajuste"
)

// LoyaltyAccount es la cuenta de puntos de un cliente, identificada por su RUT.
type LoyaltyAccount struct {
	ID             string
	CustomerRef    string // RUT
	CustomerName   string
	CurrentPoints  int64
	LifetimePoints int64
	Level          string
	Active         bool
	LastPurchaseAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LoyaltyMovement es un asiento del ledger de puntos. La reversión de una
// acumulación se registra como un ajuste con puntos negativos, nunca
// borrando el asiento original.
type LoyaltyMovement struct {
	ID           string
	AccountID    string
	LocationID   string
	SaleID       string
	Kind         string
	Points       int64 // con signo
	PointsBefore int64
	PointsAfter  int64
	Detail       string
	CreatedAt    time.Time
}
