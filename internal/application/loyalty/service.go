// Package loyalty calcula la acumulación y reversión de puntos de
// fidelización ligadas a una venta. Nunca corre solo: siempre dentro de la
// transacción del ciclo de vida de notas/ventas que lo invoca.
package loyalty

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
	"github.com/jhoicas/ferrepos-core/pkg/logger"
)

// Service calcula puntos con una tasa fija de pesos por punto.
type Service struct {
	pesosPerPoint int64
	log           *logger.Logger
}

// NewService construye el servicio. pesosPerPoint <= 0 usa 100 (1 punto por
// cada $100).
func NewService(pesosPerPoint int64, log *logger.Logger) *Service {
	if pesosPerPoint <= 0 {
		pesosPerPoint = 100
	}
	return &Service{pesosPerPoint: pesosPerPoint, log: log.Component("loyalty")}
}

// AccrualResult resultado de una acumulación aplicada.
type AccrualResult struct {
	AccountID     string
	PointsAwarded int64
	NewBalance    int64
}

// AccrueInTx acumula floor(total/pesosPerPoint) puntos al cliente usando los
// repositorios de la transacción del caller. Si el cliente no está en el
// programa, o los puntos calculados son cero, devuelve (nil, nil): la
// fidelización nunca bloquea una venta.
func (s *Service) AccrueInTx(
	repo repository.LoyaltyRepository,
	customerRef, saleID, locationID string,
	total decimal.Decimal,
	now time.Time,
) (*AccrualResult, error) {
	if customerRef == "" || saleID == "" {
		return nil, fmt.Errorf("%w: cliente y venta son obligatorios", domain.ErrInvalidInput)
	}

	account, err := repo.GetByCustomerRefForUpdate(customerRef)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil // cliente fuera del programa
	}

	points := total.Div(decimal.NewFromInt(s.pesosPerPoint)).IntPart()
	if points <= 0 {
		return nil, nil
	}

	before := account.CurrentPoints
	account.CurrentPoints += points
	account.LifetimePoints += points
	account.LastPurchaseAt = &now
	account.UpdatedAt = now
	if err := repo.UpdatePoints(account); err != nil {
		return nil, err
	}

	mov := &entity.LoyaltyMovement{
		ID:           uuid.New().String(),
		AccountID:    account.ID,
		LocationID:   locationID,
		SaleID:       saleID,
		Kind:         entity.LoyaltyAccrual,
		Points:       points,
		PointsBefore: before,
		PointsAfter:  account.CurrentPoints,
		Detail:       fmt.Sprintf("Acumulación por venta de $%s", total.StringFixed(2)),
		CreatedAt:    now,
	}
	if err := repo.CreateMovement(mov); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("account_id", account.ID).
		Str("sale_id", saleID).
		Int64("points", points).
		Msg("puntos acumulados")
	return &AccrualResult{
		AccountID:     account.ID,
		PointsAwarded: points,
		NewBalance:    account.CurrentPoints,
	}, nil
}

// ReverseInTx aplica el asiento contrario a la acumulación de una venta.
// Idempotente: si la venta no acumuló, o ya se revirtió, no hace nada y
// devuelve false.
func (s *Service) ReverseInTx(repo repository.LoyaltyRepository, saleID string, now time.Time) (bool, error) {
	if saleID == "" {
		return false, fmt.Errorf("%w: falta el id de la venta", domain.ErrInvalidInput)
	}

	accrual, err := repo.FindAccrualBySale(saleID)
	if err != nil {
		return false, err
	}
	if accrual == nil {
		return false, nil
	}

	account, err := repo.GetByIDForUpdate(accrual.AccountID)
	if err != nil {
		return false, err
	}
	if account == nil {
		return false, fmt.Errorf("%w: cuenta de fidelización %s", domain.ErrNotFound, accrual.AccountID)
	}

	before := account.CurrentPoints
	account.CurrentPoints -= accrual.Points
	account.UpdatedAt = now
	if err := repo.UpdatePoints(account); err != nil {
		return false, err
	}

	mov := &entity.LoyaltyMovement{
		ID:           uuid.New().String(),
		AccountID:    account.ID,
		LocationID:   accrual.LocationID,
		SaleID:       saleID,
		Kind:         entity.LoyaltyAdjustment,
		Points:       -accrual.Points,
		PointsBefore: before,
		PointsAfter:  account.CurrentPoints,
		Detail:       "Reversión por anulación de venta",
		CreatedAt:    now,
	}
	if err := repo.CreateMovement(mov); err != nil {
		return false, err
	}

	s.log.Debug().
		Str("account_id", account.ID).
		Str("sale_id", saleID).
		Int64("points", -accrual.Points).
		Msg("puntos revertidos")
	return true, nil
}
