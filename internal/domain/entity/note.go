package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de nota de venta.
const (
	NoteKindQuotation = "cotizacion" // no aparta stock
	NoteKindHold      = "reserva"    // aparta stock al crearse
)

// Estados de una nota de venta. Los tres últimos son terminales:
// una nota que sale de "activa" no vuelve a mutar.
const (
	NoteStatusActive    = "activa"
	NoteStatusConverted = "convertida"
	NoteStatusVoided    = "anulada"
	NoteStatusExpired   = "vencida"
)

// TotalsTolerance es la tolerancia de redondeo aceptada al validar totales.
var TotalsTolerance = decimal.NewFromFloat(0.01)

// Note representa una nota de venta: cotización o reserva que puede
// convertirse en venta.
type Note struct {
	ID              string
	SequenceNumber  int64
	LocationID      string
	SalespersonID   string
	CustomerRef     string // RUT del cliente; vacío si no hay cliente
	CustomerName    string
	Kind            string
	Subtotal        decimal.Decimal
	DiscountTotal   decimal.Decimal
	TaxTotal        decimal.Decimal
	Total           decimal.Decimal
	Status          string
	Notes           string
	ExpiresAt       time.Time
	ConvertedSaleID string // vacío hasta convertirse
	VoidReason      string
	VoidedBy        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NoteLine es una línea de detalle de la nota. Inmutable una vez que la
// nota sale del estado activa.
type NoteLine struct {
	ID           string
	NoteID       string
	ProductID    string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	UnitDiscount decimal.Decimal
	LineTotal    decimal.Decimal
	Notes        string
}

// IsTerminal indica si el estado no admite más transiciones.
func (n *Note) IsTerminal() bool {
	return n.Status != NoteStatusActive
}

// ValidateTotals verifica la aritmética de la nota contra sus líneas con
// tolerancia de 0.01: cada LineTotal = Quantity*UnitPrice - UnitDiscount,
// Subtotal = suma de líneas y Total = Subtotal - DiscountTotal + TaxTotal.
func (n *Note) ValidateTotals(lines []*NoteLine) bool {
	if len(lines) == 0 {
		return false
	}
	var subtotal decimal.Decimal
	for _, line := range lines {
		expected := line.Quantity.Mul(line.UnitPrice).Sub(line.UnitDiscount)
		if expected.Sub(line.LineTotal).Abs().GreaterThan(TotalsTolerance) {
			return false
		}
		subtotal = subtotal.Add(line.LineTotal)
	}
	if subtotal.Sub(n.Subtotal).Abs().GreaterThan(TotalsTolerance) {
		return false
	}
	total := n.Subtotal.Sub(n.DiscountTotal).Add(n.TaxTotal)
	return total.Sub(n.Total).Abs().LessThanOrEqual(TotalsTolerance)
}
