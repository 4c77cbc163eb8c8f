package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación de StockMovementRepository sobre PostgreSQL.
// Solo inserta y lee: el ledger es inmutable.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador de movimientos.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta un asiento en el ledger.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	query := `
		INSERT INTO movimientos_stock
			(id, producto_id, sucursal_id, tipo_movimiento, cantidad,
			 cantidad_anterior, cantidad_nueva, documento_referencia,
			 observaciones, usuario_id, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.ProductID, m.LocationID, m.Kind, m.Quantity,
		m.QuantityBefore, m.QuantityAfter, m.Reference,
		m.Notes, m.ActorID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// ListByProduct devuelve los movimientos de un par (producto, sucursal),
// más recientes primero, acotados por fechas opcionales.
func (r *StockMovementRepo) ListByProduct(productID, locationID string, from, to *time.Time, limit int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, producto_id, sucursal_id, tipo_movimiento, cantidad,
		       cantidad_anterior, cantidad_nueva, documento_referencia,
		       observaciones, usuario_id, fecha
		FROM movimientos_stock
		WHERE producto_id = $1 AND sucursal_id = $2`
	args := []any{productID, locationID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND fecha >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND fecha <= $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY fecha DESC LIMIT $%d", len(args))

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var result []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.LocationID, &m.Kind, &m.Quantity,
			&m.QuantityBefore, &m.QuantityAfter, &m.Reference,
			&m.Notes, &m.ActorID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		result = append(result, &m)
	}
	return result, rows.Err()
}

// SumByProduct suma las cantidades con signo de un par (producto, sucursal).
func (r *StockMovementRepo) SumByProduct(productID, locationID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(cantidad), 0)
		FROM movimientos_stock
		WHERE producto_id = $1 AND sucursal_id = $2`
	var sum decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, productID, locationID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}
