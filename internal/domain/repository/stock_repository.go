package repository

import "github.com/jhoicas/ferrepos-core/internal/domain/entity"

// StockRepository define el puerto para consultar/actualizar stock por producto+sucursal.
// Las escrituras se usan solo dentro de transacciones del ledger.
type StockRepository interface {
	Get(productID, locationID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE). Si la fila no
	// existe la crea en cero antes de bloquear, de modo que dos escritores
	// concurrentes sobre el mismo par queden serializados siempre.
	GetForUpdate(productID, locationID string) (*entity.Stock, error)
	Upsert(stock *entity.Stock) error
	// ListByLocation devuelve el stock de una sucursal, opcionalmente filtrado
	// por productos (lectura para el catálogo y reportes).
	ListByLocation(locationID string, productIDs []string) ([]*entity.Stock, error)
	// ListLowStock devuelve filas cuya disponibilidad está en o bajo el stock
	// mínimo del producto.
	ListLowStock(locationID string) ([]*entity.Stock, error)
}
