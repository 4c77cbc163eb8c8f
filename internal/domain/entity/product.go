package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El stock vive por sucursal
// en Stock; aquí solo datos comerciales y de clasificación.
type Product struct {
	ID           string
	InternalCode string // código interno único
	Barcode      string
	Description  string
	Brand        string
	CategoryID   string
	Price        decimal.Decimal
	Cost         decimal.Decimal // costo promedio ponderado
	UnitMeasure  string
	MinStock     decimal.Decimal
	MaxStock     decimal.Decimal
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
