// Package notes implementa el ciclo de vida de notas de venta: creación de
// cotizaciones y reservas, conversión a venta, anulación y vencimiento. Cada
// transición corre en una sola transacción junto con el ledger de stock y la
// fidelización; los updates condicionales de estado resuelven las carreras
// entre conversión, anulación y barrido.
package notes

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/application/loyalty"
	"github.com/jhoicas/ferrepos-core/internal/application/stockledger"
	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
	"github.com/jhoicas/ferrepos-core/pkg/logger"
)

// Service orquesta las transiciones de estado de las notas de venta.
type Service struct {
	txRunner    TxRunner
	ledger      *stockledger.Service
	loyalty     *loyalty.Service
	noteRepo    repository.NoteRepository        // lecturas fuera de tx
	saleRepo    repository.SaleRepository        // lecturas fuera de tx
	resRepo     repository.ReservationRepository // lecturas fuera de tx
	productRepo repository.ProductRepository
	holdTTL     time.Duration
	quoteTTL    time.Duration
	log         *logger.Logger
}

// NewService construye el servicio de notas. holdTTL y quoteTTL en cero usan
// los plazos de negocio por defecto (7 y 30 días).
func NewService(
	txRunner TxRunner,
	ledgerSvc *stockledger.Service,
	loyaltySvc *loyalty.Service,
	noteRepo repository.NoteRepository,
	saleRepo repository.SaleRepository,
	resRepo repository.ReservationRepository,
	productRepo repository.ProductRepository,
	holdTTL, quoteTTL time.Duration,
	log *logger.Logger,
) *Service {
	if holdTTL <= 0 {
		holdTTL = 7 * 24 * time.Hour
	}
	if quoteTTL <= 0 {
		quoteTTL = 30 * 24 * time.Hour
	}
	return &Service{
		txRunner:    txRunner,
		ledger:      ledgerSvc,
		loyalty:     loyaltySvc,
		noteRepo:    noteRepo,
		saleRepo:    saleRepo,
		resRepo:     resRepo,
		productRepo: productRepo,
		holdTTL:     holdTTL,
		quoteTTL:    quoteTTL,
		log:         log.Component("notes"),
	}
}

// NoteLineInput línea de detalle de una nota nueva.
type NoteLineInput struct {
	ProductID    string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	UnitDiscount decimal.Decimal
	LineTotal    decimal.Decimal
	Notes        string
}

// NoteInput entrada tipada para crear una nota de venta.
type NoteInput struct {
	Kind          string
	LocationID    string
	SalespersonID string
	CustomerRef   string
	CustomerName  string
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	Total         decimal.Decimal
	Notes         string
	Lines         []NoteLineInput
}

// Validate verifica campos obligatorios y convenciones de signo de la nota.
// La aritmética de totales se valida aparte, contra la entidad.
func (in NoteInput) Validate() error {
	if in.Kind != entity.NoteKindQuotation && in.Kind != entity.NoteKindHold {
		return fmt.Errorf("%w: tipo de nota %q", domain.ErrInvalidInput, in.Kind)
	}
	if in.LocationID == "" || in.SalespersonID == "" {
		return fmt.Errorf("%w: sucursal y vendedor son obligatorios", domain.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: la nota necesita al menos una línea", domain.ErrInvalidInput)
	}
	for i, line := range in.Lines {
		if line.ProductID == "" {
			return fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i+1)
		}
		if !line.Quantity.GreaterThan(decimal.Zero) {
			return fmt.Errorf("%w: línea %d con cantidad no positiva", domain.ErrInvalidInput, i+1)
		}
		if line.UnitPrice.LessThan(decimal.Zero) || line.UnitDiscount.LessThan(decimal.Zero) {
			return fmt.Errorf("%w: línea %d con precio o descuento negativo", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

// PaymentInput medio de pago aplicado al convertir una nota.
type PaymentInput struct {
	Method        string
	Amount        decimal.Decimal
	Reference     string
	Authorization string
}

// ConvertInput entrada tipada para convertir una nota en venta.
type ConvertInput struct {
	NoteID       string
	TerminalID   string
	CashierID    string
	DocumentKind string
	ActorID      string
	Payments     []PaymentInput
}

// Validate verifica los campos obligatorios de la conversión.
func (in ConvertInput) Validate() error {
	if in.NoteID == "" {
		return fmt.Errorf("%w: falta el id de la nota", domain.ErrInvalidInput)
	}
	if in.TerminalID == "" || in.CashierID == "" || in.ActorID == "" {
		return fmt.Errorf("%w: terminal, cajero y usuario son obligatorios", domain.ErrInvalidInput)
	}
	for i, p := range in.Payments {
		if p.Method == "" {
			return fmt.Errorf("%w: pago %d sin medio", domain.ErrInvalidInput, i+1)
		}
		if !p.Amount.GreaterThan(decimal.Zero) {
			return fmt.Errorf("%w: pago %d con monto no positivo", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

// NoteDetail es la vista completa de una nota: cabecera, líneas y reservas
// activas asociadas.
type NoteDetail struct {
	Note         *entity.Note
	Lines        []*entity.NoteLine
	Reservations []*entity.Reservation
}
