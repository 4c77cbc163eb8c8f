package repository

import "github.com/jhoicas/ferrepos-core/internal/domain/entity"

// LoyaltyRepository define el puerto de persistencia para cuentas y movimientos
// de fidelización. Se usa siempre dentro de la transacción del caller.
type LoyaltyRepository interface {
	// GetByCustomerRefForUpdate busca la cuenta activa por RUT y la bloquea.
	// Devuelve nil sin error si el cliente no está en el programa.
	GetByCustomerRefForUpdate(customerRef string) (*entity.LoyaltyAccount, error)
	GetByIDForUpdate(id string) (*entity.LoyaltyAccount, error)
	UpdatePoints(account *entity.LoyaltyAccount) error
	CreateMovement(movement *entity.LoyaltyMovement) error
	// FindAccrualBySale devuelve la acumulación aún no revertida de una venta;
	// nil si no hubo acumulación o ya se revirtió.
	FindAccrualBySale(saleID string) (*entity.LoyaltyMovement, error)
}
