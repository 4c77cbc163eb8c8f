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

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador de reservas.
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, producto_id, sucursal_id, nota_venta_id, cantidad, estado,
	fecha_expiracion, fecha_creacion, fecha_liberacion`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(&res.ID, &res.ProductID, &res.LocationID, &res.NoteID,
		&res.Quantity, &res.Status, &res.ExpiresAt, &res.CreatedAt, &res.ReleasedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Create inserta una reserva activa.
func (r *ReservationRepo) Create(res *entity.Reservation) error {
	query := `
		INSERT INTO reservas_stock
			(id, producto_id, sucursal_id, nota_venta_id, cantidad, estado,
			 fecha_expiracion, fecha_creacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		res.ID, res.ProductID, res.LocationID, res.NoteID,
		res.Quantity, res.Status, res.ExpiresAt, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva por id; nil si no existe.
func (r *ReservationRepo) GetByID(id string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservas_stock WHERE id = $1`
	res, err := scanReservation(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// GetByIDForUpdate obtiene la reserva bloqueando la fila.
func (r *ReservationRepo) GetByIDForUpdate(id string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservas_stock WHERE id = $1 FOR UPDATE`
	res, err := scanReservation(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation for update: %w", err)
	}
	return res, nil
}

// ActiveByNote devuelve las reservas activas de una nota, bloqueadas para
// update: quien las lista es porque va a liberarlas o convertirlas.
func (r *ReservationRepo) ActiveByNote(noteID string) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservas_stock
		WHERE nota_venta_id = $1 AND estado = $2
		ORDER BY fecha_creacion
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, noteID, entity.ReservationActive)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var result []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

// MarkReleased marca la reserva como liberada con su fecha.
func (r *ReservationRepo) MarkReleased(id string, at time.Time) error {
	query := `
		UPDATE reservas_stock
		SET estado = $1, fecha_liberacion = $2
		WHERE id = $3`
	_, err := r.q.Exec(context.Background(), query, entity.ReservationReleased, at, id)
	if err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	return nil
}
