package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusFinalized = "finalizada"
	SaleStatusVoided    = "anulada"
)

// Sale es la transacción definitiva producida al convertir una nota.
// Append-only salvo la anulación, que revierte stock y fidelización.
type Sale struct {
	ID             string
	SequenceNumber int64
	LocationID     string
	TerminalID     string
	CashierID      string
	SalespersonID  string
	CustomerRef    string
	CustomerName   string
	NoteID         string // nota de origen; vacío en venta directa de caja
	DocumentKind   string // boleta, factura, guia
	Subtotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	TaxTotal       decimal.Decimal
	Total          decimal.Decimal
	Status         string
	VoidReason     string
	VoidedBy       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaleLine es una línea de detalle de la venta.
type SaleLine struct {
	ID           string
	SaleID       string
	ProductID    string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	UnitDiscount decimal.Decimal
	LineTotal    decimal.Decimal
}

// SalePayment registra un medio de pago aplicado a la venta.
type SalePayment struct {
	ID            string
	SaleID        string
	Method        string // efectivo, tarjeta_credito, tarjeta_debito, transferencia
	Amount        decimal.Decimal
	Reference     string // referencia de transacción del adquirente
	Authorization string
	CreatedAt     time.Time
}
