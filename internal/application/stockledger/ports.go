package stockledger

import (
	"context"

	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el ledger: o se
// escriben stock, movimiento y reservas juntos, o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
	) error) error
}
