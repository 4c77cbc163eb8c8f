package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una reserva de stock.
const (
	ReservationActive   = "activa"
	ReservationReleased = "liberada"
)

// Reservation es un apartado temporal de stock ligado a una nota tipo reserva.
// Invariante: la suma de reservas activas por (producto, sucursal) es igual
// al QuantityReserved de la fila de stock correspondiente.
type Reservation struct {
	ID         string
	ProductID  string
	LocationID string
	NoteID     string
	Quantity   decimal.Decimal
	Status     string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	ReleasedAt *time.Time
}
