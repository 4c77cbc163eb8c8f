package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ferrepos-core/internal/application/notes"
	"github.com/jhoicas/ferrepos-core/internal/application/stockledger"
	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// Ensure TxRunner implements stockledger.TxRunner y notes.TxRunner.
var _ stockledger.TxRunner = (*LedgerTxRunner)(nil)
var _ notes.TxRunner = (*NoteTxRunner)(nil)

// LedgerTxRunner ejecuta operaciones del ledger de stock dentro de una
// transacción PostgreSQL.
type LedgerTxRunner struct {
	pool *pgxpool.Pool
}

// NewLedgerTxRunner construye el runner con el pool.
func NewLedgerTxRunner(pool *pgxpool.Pool) *LedgerTxRunner {
	return &LedgerTxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback.
func (r *LedgerTxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStockRepository(tx), NewStockMovementRepository(tx), NewReservationRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrTransactionFailed, err)
	}
	return nil
}

// NoteTxRunner ejecuta transiciones de notas dentro de una transacción
// PostgreSQL, con todos los repositorios que una conversión puede tocar.
type NoteTxRunner struct {
	pool *pgxpool.Pool
}

// NewNoteTxRunner construye el runner con el pool.
func NewNoteTxRunner(pool *pgxpool.Pool) *NoteTxRunner {
	return &NoteTxRunner{pool: pool}
}

// Run inicia una transacción con los repos de notas, ventas, ledger y
// fidelización atados a ella.
func (r *NoteTxRunner) Run(ctx context.Context, fn func(
	noteRepo repository.NoteRepository,
	saleRepo repository.SaleRepository,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	loyaltyRepo repository.LoyaltyRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewNoteRepository(tx),
		NewSaleRepository(tx),
		NewStockRepository(tx),
		NewStockMovementRepository(tx),
		NewReservationRepository(tx),
		NewLoyaltyRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrTransactionFailed, err)
	}
	return nil
}
