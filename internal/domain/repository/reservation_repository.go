package repository

import (
	"time"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia para reservas de stock.
type ReservationRepository interface {
	Create(reservation *entity.Reservation) error
	GetByID(id string) (*entity.Reservation, error)
	// GetByIDForUpdate bloquea la reserva; evita que dos liberaciones
	// concurrentes descuenten dos veces el reservado.
	GetByIDForUpdate(id string) (*entity.Reservation, error)
	ActiveByNote(noteID string) ([]*entity.Reservation, error)
	MarkReleased(id string, at time.Time) error
}
