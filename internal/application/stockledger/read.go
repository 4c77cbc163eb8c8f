package stockledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
)

// Availability es la foto de existencias de un par (producto, sucursal).
type Availability struct {
	ProductID  string
	LocationID string
	OnHand     decimal.Decimal
	Reserved   decimal.Decimal
	Available  decimal.Decimal
}

// GetAvailability lee existencia, reservado y disponible. Lectura pura,
// sin transacción; un par sin movimientos responde en cero.
func (s *Service) GetAvailability(ctx context.Context, productID, locationID string) (*Availability, error) {
	stock, err := s.stockRepo.Get(productID, locationID)
	if err != nil {
		return nil, err
	}
	return &Availability{
		ProductID:  productID,
		LocationID: locationID,
		OnHand:     stock.QuantityOnHand,
		Reserved:   stock.QuantityReserved,
		Available:  stock.Available(),
	}, nil
}

// MovementHistory devuelve los movimientos de un producto en una sucursal,
// más recientes primero.
func (s *Service) MovementHistory(ctx context.Context, productID, locationID string, from, to *time.Time, limit int) ([]*entity.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.movRepo.ListByProduct(productID, locationID, from, to, limit)
}

// Reconciliation es el resultado de contrastar el ledger con el stock actual.
type Reconciliation struct {
	ProductID  string
	LocationID string
	OnHand     decimal.Decimal
	LedgerSum  decimal.Decimal
	Balanced   bool
}

// Reconcile suma las cantidades con signo del ledger y las compara con la
// existencia actual: si no calzan, alguien escribió stock fuera del ledger.
func (s *Service) Reconcile(ctx context.Context, productID, locationID string) (*Reconciliation, error) {
	stock, err := s.stockRepo.Get(productID, locationID)
	if err != nil {
		return nil, err
	}
	sum, err := s.movRepo.SumByProduct(productID, locationID)
	if err != nil {
		return nil, err
	}
	return &Reconciliation{
		ProductID:  productID,
		LocationID: locationID,
		OnHand:     stock.QuantityOnHand,
		LedgerSum:  sum,
		Balanced:   stock.QuantityOnHand.Equal(sum),
	}, nil
}
