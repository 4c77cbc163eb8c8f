package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
)

// ProductFilter agrupa los criterios de búsqueda del catálogo. Query llega ya
// normalizado (minúsculas, sin tildes) desde la capa de catálogo.
type ProductFilter struct {
	Query      string
	CategoryID string
	Brand      string
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	OnlyActive bool
	OrderBy    string // descripcion, precio, codigo_interno
	Descending bool
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de lectura/escritura del catálogo de productos.
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
	Search(filter ProductFilter) ([]*entity.Product, error)
	Count(filter ProductFilter) (int64, error)
	UpdateCost(id string, cost decimal.Decimal) error
}
