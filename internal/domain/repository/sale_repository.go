package repository

import (
	"time"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas, líneas y medios de pago.
type SaleRepository interface {
	Create(sale *entity.Sale) error
	CreateLine(line *entity.SaleLine) error
	CreatePayment(payment *entity.SalePayment) error
	GetByID(id string) (*entity.Sale, error)
	LinesBySale(saleID string) ([]*entity.SaleLine, error)
	// UpdateStatusIf transiciona la venta solo si el estado actual coincide.
	UpdateStatusIf(sale *entity.Sale, fromStatus string) (bool, error)
	ListByPeriod(locationID string, from, to time.Time) ([]*entity.Sale, error)
}
