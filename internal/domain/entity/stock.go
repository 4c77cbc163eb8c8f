package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa las existencias de un producto en una sucursal.
// Fila autoritativa: solo el ledger de stock la escribe, siempre bajo
// SELECT FOR UPDATE, y cada cambio deja un StockMovement.
type Stock struct {
	ProductID        string
	LocationID       string
	QuantityOnHand   decimal.Decimal
	QuantityReserved decimal.Decimal
	AverageCost      decimal.Decimal
	LastSyncedAt     time.Time
}

// Available devuelve la cantidad vendible ahora mismo (existencia menos reservado).
func (s *Stock) Available() decimal.Decimal {
	return s.QuantityOnHand.Sub(s.QuantityReserved)
}
