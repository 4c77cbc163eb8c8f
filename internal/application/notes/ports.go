package notes

import (
	"context"

	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con todos los
// repositorios que una transición de nota puede necesitar: la nota, su venta,
// el ledger de stock, las reservas y la fidelización comparten Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		noteRepo repository.NoteRepository,
		saleRepo repository.SaleRepository,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		loyaltyRepo repository.LoyaltyRepository,
	) error) error
}
