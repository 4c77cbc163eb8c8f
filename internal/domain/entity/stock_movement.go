package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock. El valor es el que se persiste.
const (
	MovementInflow      = "entrada"
	MovementOutflow     = "salida"
	MovementTransferIn  = "transferencia_entrada"
	MovementTransferOut = "transferencia_salida"
	MovementAdjustment  = "ajuste"
	MovementSale        = "venta"
	MovementReturn      = "devolucion"
)

// MovementSign devuelve +1 si el tipo suma existencias, -1 si resta,
// 0 si el tipo no es válido. Para ajustes el signo lo trae la cantidad.
func MovementSign(kind string) int {
	switch kind {
	case MovementInflow, MovementTransferIn, MovementReturn:
		return 1
	case MovementOutflow, MovementTransferOut, MovementSale:
		return -1
	case MovementAdjustment:
		return 1
	}
	return 0
}

// ValidMovementKind indica si el tipo de movimiento existe.
func ValidMovementKind(kind string) bool {
	return MovementSign(kind) != 0
}

// StockMovement es un asiento inmutable del ledger de stock.
// Invariante: QuantityAfter = QuantityBefore + Quantity, y la suma de
// Quantity por (producto, sucursal) reproduce el QuantityOnHand actual.
type StockMovement struct {
	ID             string
	ProductID      string
	LocationID     string
	Kind           string
	Quantity       decimal.Decimal // con signo: positivo suma, negativo resta
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	Reference      string // documento origen: VENTA-xxx, TRANSFER-xxx, AJUSTE-xxx
	Notes          string
	ActorID        string
	CreatedAt      time.Time
}
