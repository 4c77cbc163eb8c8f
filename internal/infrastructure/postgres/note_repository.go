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

var _ repository.NoteRepository = (*NoteRepo)(nil)

// NoteRepo implementación de NoteRepository sobre PostgreSQL.
type NoteRepo struct {
	q Querier
}

// NewNoteRepository construye el adaptador de notas de venta.
func NewNoteRepository(q Querier) *NoteRepo {
	return &NoteRepo{q: q}
}

const noteColumns = `id, numero_nota, sucursal_id, vendedor_id, cliente_rut, cliente_nombre,
	tipo_nota, subtotal, descuento_total, impuesto_total, total, estado, observaciones,
	fecha_vencimiento, venta_id, motivo_anulacion, anulada_por, fecha_creacion, fecha_modificacion`

func scanNote(row pgx.Row) (*entity.Note, error) {
	var n entity.Note
	err := row.Scan(&n.ID, &n.SequenceNumber, &n.LocationID, &n.SalespersonID,
		&n.CustomerRef, &n.CustomerName, &n.Kind, &n.Subtotal, &n.DiscountTotal,
		&n.TaxTotal, &n.Total, &n.Status, &n.Notes, &n.ExpiresAt,
		&n.ConvertedSaleID, &n.VoidReason, &n.VoidedBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserta la nota. El correlativo numero_nota lo asigna la secuencia
// de la tabla y queda en note.SequenceNumber.
func (r *NoteRepo) Create(note *entity.Note) error {
	query := `
		INSERT INTO notas_venta
			(id, sucursal_id, vendedor_id, cliente_rut, cliente_nombre, tipo_nota,
			 subtotal, descuento_total, impuesto_total, total, estado, observaciones,
			 fecha_vencimiento, venta_id, motivo_anulacion, anulada_por,
			 fecha_creacion, fecha_modificacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING numero_nota`
	err := r.q.QueryRow(context.Background(), query,
		note.ID, note.LocationID, note.SalespersonID, note.CustomerRef, note.CustomerName,
		note.Kind, note.Subtotal, note.DiscountTotal, note.TaxTotal, note.Total,
		note.Status, note.Notes, note.ExpiresAt, note.ConvertedSaleID,
		note.VoidReason, note.VoidedBy, note.CreatedAt, note.UpdatedAt,
	).Scan(&note.SequenceNumber)
	if err != nil {
		return fmt.Errorf("create note: %w", mapInsertError(err))
	}
	return nil
}

// CreateLine inserta una línea de detalle de la nota.
func (r *NoteRepo) CreateLine(line *entity.NoteLine) error {
	query := `
		INSERT INTO detalle_notas_venta
			(id, nota_venta_id, producto_id, cantidad, precio_unitario,
			 descuento_unitario, total_item, observaciones)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.NoteID, line.ProductID, line.Quantity,
		line.UnitPrice, line.UnitDiscount, line.LineTotal, line.Notes)
	if err != nil {
		return fmt.Errorf("create note line: %w", err)
	}
	return nil
}

// GetByID obtiene una nota por id; nil si no existe.
func (r *NoteRepo) GetByID(id string) (*entity.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notas_venta WHERE id = $1`
	n, err := scanNote(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// LinesByNote devuelve las líneas de la nota en orden de inserción.
func (r *NoteRepo) LinesByNote(noteID string) ([]*entity.NoteLine, error) {
	query := `
		SELECT id, nota_venta_id, producto_id, cantidad, precio_unitario,
		       descuento_unitario, total_item, observaciones
		FROM detalle_notas_venta
		WHERE nota_venta_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, noteID)
	if err != nil {
		return nil, fmt.Errorf("list note lines: %w", err)
	}
	defer rows.Close()

	var result []*entity.NoteLine
	for rows.Next() {
		var line entity.NoteLine
		if err := rows.Scan(&line.ID, &line.NoteID, &line.ProductID, &line.Quantity,
			&line.UnitPrice, &line.UnitDiscount, &line.LineTotal, &line.Notes); err != nil {
			return nil, fmt.Errorf("scan note line: %w", err)
		}
		result = append(result, &line)
	}
	return result, rows.Err()
}

// UpdateStatusIf escribe el estado y los campos terminales solo si el estado
// en BD sigue siendo fromStatus. Devuelve false si otra transacción ganó.
func (r *NoteRepo) UpdateStatusIf(note *entity.Note, fromStatus string) (bool, error) {
	query := `
		UPDATE notas_venta
		SET estado = $1, venta_id = $2, motivo_anulacion = $3, anulada_por = $4,
		    fecha_modificacion = $5
		WHERE id = $6 AND estado = $7`
	tag, err := r.q.Exec(context.Background(), query,
		note.Status, note.ConvertedSaleID, note.VoidReason, note.VoidedBy,
		note.UpdatedAt, note.ID, fromStatus)
	if err != nil {
		return false, fmt.Errorf("update note status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListExpired devuelve notas activas con vencimiento anterior a now.
func (r *NoteRepo) ListExpired(now time.Time, limit int) ([]*entity.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notas_venta
		WHERE estado = $1 AND fecha_vencimiento < $2
		ORDER BY fecha_vencimiento
		LIMIT $3`
	return r.listNotes(query, entity.NoteStatusActive, now, limit)
}

// ListExpiringBefore devuelve notas activas que vencen antes del límite.
func (r *NoteRepo) ListExpiringBefore(limit time.Time) ([]*entity.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notas_venta
		WHERE estado = $1 AND fecha_vencimiento < $2
		ORDER BY fecha_vencimiento`
	return r.listNotes(query, entity.NoteStatusActive, limit)
}

func (r *NoteRepo) listNotes(query string, args ...any) ([]*entity.Note, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var result []*entity.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
