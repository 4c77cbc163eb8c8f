package repository

import (
	"time"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
)

// NoteRepository define el puerto de persistencia para notas de venta y sus líneas.
type NoteRepository interface {
	Create(note *entity.Note) error
	CreateLine(line *entity.NoteLine) error
	GetByID(id string) (*entity.Note, error)
	LinesByNote(noteID string) ([]*entity.NoteLine, error)
	// UpdateStatusIf escribe el estado y los campos terminales de la nota solo
	// si el estado actual en BD coincide con fromStatus (update condicional).
	// Devuelve false si otra transacción ganó la carrera.
	UpdateStatusIf(note *entity.Note, fromStatus string) (bool, error)
	// ListExpired devuelve notas activas con vencimiento anterior a now.
	ListExpired(now time.Time, limit int) ([]*entity.Note, error)
	// ListExpiringBefore devuelve notas activas que vencen antes del límite
	// (avisos de próximos vencimientos).
	ListExpiringBefore(limit time.Time) ([]*entity.Note, error)
}
