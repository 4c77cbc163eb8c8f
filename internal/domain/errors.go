package domain

import "errors"

// Errores de dominio (sin dependencias externas). Los casos de uso los envuelven
// con fmt.Errorf("%w: ...") para agregar contexto; el caller los detecta con errors.Is.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInvalidTotals      = errors.New("los totales no cuadran con el detalle")
	ErrNoteNotActive      = errors.New("la nota de venta no está activa")
	ErrSaleNotActive      = errors.New("la venta no está activa")
	ErrConcurrencyTimeout = errors.New("timeout esperando ejecución concurrente")
	ErrTransactionFailed  = errors.New("la transacción de base de datos falló")
)
