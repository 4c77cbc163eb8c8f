package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del ledger de movimientos.
// Solo inserta y lee: los movimientos nunca se actualizan ni se borran.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	ListByProduct(productID, locationID string, from, to *time.Time, limit int) ([]*entity.StockMovement, error)
	// SumByProduct suma las cantidades con signo de un par (producto, sucursal).
	// Reproducir el stock actual desde esta suma es la conciliación del ledger.
	SumByProduct(productID, locationID string) (decimal.Decimal, error)
}
