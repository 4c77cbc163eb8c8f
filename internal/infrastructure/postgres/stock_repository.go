package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `producto_id, sucursal_id, cantidad, cantidad_reservada, costo_promedio, fecha_sync`

func scanStock(row pgx.Row) (*entity.Stock, error) {
	var s entity.Stock
	err := row.Scan(&s.ProductID, &s.LocationID, &s.QuantityOnHand, &s.QuantityReserved, &s.AverageCost, &s.LastSyncedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func zeroStock(productID, locationID string) *entity.Stock {
	return &entity.Stock{
		ProductID:        productID,
		LocationID:       locationID,
		QuantityOnHand:   decimal.Zero,
		QuantityReserved: decimal.Zero,
		AverageCost:      decimal.Zero,
		LastSyncedAt:     time.Now(),
	}
}

// Get obtiene el stock actual de un producto en una sucursal. Un par sin
// fila responde en cero, sin error.
func (r *StockRepo) Get(productID, locationID string) (*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE producto_id = $1 AND sucursal_id = $2`
	s, err := scanStock(r.q.QueryRow(context.Background(), query, productID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroStock(productID, locationID), nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE). Si la
// fila no existe la crea en cero primero, para que dos escritores concurrentes
// del mismo par siempre queden serializados sobre la misma fila.
func (r *StockRepo) GetForUpdate(productID, locationID string) (*entity.Stock, error) {
	ctx := context.Background()
	insert := `
		INSERT INTO stock (producto_id, sucursal_id, cantidad, cantidad_reservada, costo_promedio, fecha_sync)
		VALUES ($1, $2, 0, 0, 0, now())
		ON CONFLICT (producto_id, sucursal_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, productID, locationID); err != nil {
		return nil, fmt.Errorf("init stock row: %w", err)
	}

	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE producto_id = $1 AND sucursal_id = $2
		FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, locationID))
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza la fila de stock de un producto en una sucursal.
func (r *StockRepo) Upsert(stock *entity.Stock) error {
	query := `
		INSERT INTO stock (producto_id, sucursal_id, cantidad, cantidad_reservada, costo_promedio, fecha_sync)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (producto_id, sucursal_id)
		DO UPDATE SET cantidad = EXCLUDED.cantidad,
		              cantidad_reservada = EXCLUDED.cantidad_reservada,
		              costo_promedio = EXCLUDED.costo_promedio,
		              fecha_sync = EXCLUDED.fecha_sync`
	_, err := r.q.Exec(context.Background(), query,
		stock.ProductID, stock.LocationID, stock.QuantityOnHand,
		stock.QuantityReserved, stock.AverageCost, stock.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByLocation devuelve el stock de una sucursal, opcionalmente filtrado
// por lista de productos.
func (r *StockRepo) ListByLocation(locationID string, productIDs []string) ([]*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE sucursal_id = $1`
	args := []any{locationID}
	if len(productIDs) > 0 {
		query += ` AND producto_id = ANY($2)`
		args = append(args, productIDs)
	}
	query += ` ORDER BY producto_id`

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var result []*entity.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ListLowStock devuelve las filas cuya disponibilidad está en o bajo el
// stock mínimo configurado en el catálogo.
func (r *StockRepo) ListLowStock(locationID string) ([]*entity.Stock, error) {
	query := `
		SELECT s.producto_id, s.sucursal_id, s.cantidad, s.cantidad_reservada, s.costo_promedio, s.fecha_sync
		FROM stock s
		JOIN productos p ON p.id = s.producto_id
		WHERE s.sucursal_id = $1
		  AND p.activo = true
		  AND (s.cantidad - s.cantidad_reservada) <= p.stock_minimo
		ORDER BY (s.cantidad - s.cantidad_reservada) ASC`
	rows, err := r.q.Query(context.Background(), query, locationID)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()

	var result []*entity.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan low stock: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
