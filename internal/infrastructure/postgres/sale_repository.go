package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, numero_venta, sucursal_id, terminal_id, cajero_id, vendedor_id,
	cliente_rut, cliente_nombre, nota_venta_id, tipo_documento, subtotal, descuento_total,
	impuesto_total, total, estado, motivo_anulacion, anulada_por, fecha, fecha_modificacion`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.SequenceNumber, &s.LocationID, &s.TerminalID, &s.CashierID,
		&s.SalespersonID, &s.CustomerRef, &s.CustomerName, &s.NoteID, &s.DocumentKind,
		&s.Subtotal, &s.DiscountTotal, &s.TaxTotal, &s.Total, &s.Status,
		&s.VoidReason, &s.VoidedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserta la venta. El correlativo numero_venta lo asigna la secuencia
// de la tabla y queda en sale.SequenceNumber.
func (r *SaleRepo) Create(sale *entity.Sale) error {
	query := `
		INSERT INTO ventas
			(id, sucursal_id, terminal_id, cajero_id, vendedor_id, cliente_rut,
			 cliente_nombre, nota_venta_id, tipo_documento, subtotal, descuento_total,
			 impuesto_total, total, estado, motivo_anulacion, anulada_por,
			 fecha, fecha_modificacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING numero_venta`
	err := r.q.QueryRow(context.Background(), query,
		sale.ID, sale.LocationID, sale.TerminalID, sale.CashierID, sale.SalespersonID,
		sale.CustomerRef, sale.CustomerName, sale.NoteID, sale.DocumentKind,
		sale.Subtotal, sale.DiscountTotal, sale.TaxTotal, sale.Total, sale.Status,
		sale.VoidReason, sale.VoidedBy, sale.CreatedAt, sale.UpdatedAt,
	).Scan(&sale.SequenceNumber)
	if err != nil {
		return fmt.Errorf("create sale: %w", mapInsertError(err))
	}
	return nil
}

// CreateLine inserta una línea de detalle de la venta.
func (r *SaleRepo) CreateLine(line *entity.SaleLine) error {
	query := `
		INSERT INTO detalle_ventas
			(id, venta_id, producto_id, cantidad, precio_unitario,
			 descuento_unitario, total_item)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.SaleID, line.ProductID, line.Quantity,
		line.UnitPrice, line.UnitDiscount, line.LineTotal)
	if err != nil {
		return fmt.Errorf("create sale line: %w", err)
	}
	return nil
}

// CreatePayment inserta un medio de pago de la venta.
func (r *SaleRepo) CreatePayment(payment *entity.SalePayment) error {
	query := `
		INSERT INTO medios_pago_venta
			(id, venta_id, medio_pago, monto, referencia_transaccion,
			 codigo_autorizacion, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		payment.ID, payment.SaleID, payment.Method, payment.Amount,
		payment.Reference, payment.Authorization, payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("create sale payment: %w", err)
	}
	return nil
}

// GetByID obtiene una venta por id; nil si no existe.
func (r *SaleRepo) GetByID(id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM ventas WHERE id = $1`
	s, err := scanSale(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// LinesBySale devuelve las líneas de la venta en orden de inserción.
func (r *SaleRepo) LinesBySale(saleID string) ([]*entity.SaleLine, error) {
	query := `
		SELECT id, venta_id, producto_id, cantidad, precio_unitario,
		       descuento_unitario, total_item
		FROM detalle_ventas
		WHERE venta_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()

	var result []*entity.SaleLine
	for rows.Next() {
		var line entity.SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.Quantity,
			&line.UnitPrice, &line.UnitDiscount, &line.LineTotal); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		result = append(result, &line)
	}
	return result, rows.Err()
}

// UpdateStatusIf transiciona la venta solo si el estado actual coincide.
func (r *SaleRepo) UpdateStatusIf(sale *entity.Sale, fromStatus string) (bool, error) {
	query := `
		UPDATE ventas
		SET estado = $1, motivo_anulacion = $2, anulada_por = $3, fecha_modificacion = $4
		WHERE id = $5 AND estado = $6`
	tag, err := r.q.Exec(context.Background(), query,
		sale.Status, sale.VoidReason, sale.VoidedBy, sale.UpdatedAt, sale.ID, fromStatus)
	if err != nil {
		return false, fmt.Errorf("update sale status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByPeriod devuelve las ventas de una sucursal en un rango de fechas.
func (r *SaleRepo) ListByPeriod(locationID string, from, to time.Time) ([]*entity.Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM ventas
		WHERE sucursal_id = $1 AND fecha >= $2 AND fecha < $3
		ORDER BY fecha`
	rows, err := r.q.Query(context.Background(), query, locationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var result []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
