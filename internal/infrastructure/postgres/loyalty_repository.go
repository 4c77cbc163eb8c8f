package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

var _ repository.LoyaltyRepository = (*LoyaltyRepo)(nil)

// LoyaltyRepo implementación de LoyaltyRepository sobre PostgreSQL.
type LoyaltyRepo struct {
	q Querier
}

// NewLoyaltyRepository construye el adaptador de fidelización.
func NewLoyaltyRepository(q Querier) *LoyaltyRepo {
	return &LoyaltyRepo{q: q}
}

const loyaltyColumns = `id, rut, nombre, puntos_actuales, puntos_acumulados_total,
	nivel, activo, fecha_ultima_compra, fecha_creacion, fecha_modificacion`

func scanLoyaltyAccount(row pgx.Row) (*entity.LoyaltyAccount, error) {
	var a entity.LoyaltyAccount
	err := row.Scan(&a.ID, &a.CustomerRef, &a.CustomerName, &a.CurrentPoints,
		&a.LifetimePoints, &a.Level, &a.Active, &a.LastPurchaseAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByCustomerRefForUpdate busca la cuenta activa por RUT y bloquea la fila.
// Devuelve nil sin error si el cliente no está en el programa.
func (r *LoyaltyRepo) GetByCustomerRefForUpdate(customerRef string) (*entity.LoyaltyAccount, error) {
	query := `
		SELECT ` + loyaltyColumns + `
		FROM fidelizacion_clientes
		WHERE rut = $1 AND activo = true
		FOR UPDATE`
	a, err := scanLoyaltyAccount(r.q.QueryRow(context.Background(), query, customerRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	return a, nil
}

// GetByIDForUpdate obtiene la cuenta por id bloqueando la fila.
func (r *LoyaltyRepo) GetByIDForUpdate(id string) (*entity.LoyaltyAccount, error) {
	query := `
		SELECT ` + loyaltyColumns + `
		FROM fidelizacion_clientes
		WHERE id = $1
		FOR UPDATE`
	a, err := scanLoyaltyAccount(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loyalty account by id: %w", err)
	}
	return a, nil
}

// UpdatePoints escribe los saldos de puntos de la cuenta.
func (r *LoyaltyRepo) UpdatePoints(account *entity.LoyaltyAccount) error {
	query := `
		UPDATE fidelizacion_clientes
		SET puntos_actuales = $1, puntos_acumulados_total = $2,
		    fecha_ultima_compra = $3, fecha_modificacion = $4
		WHERE id = $5`
	_, err := r.q.Exec(context.Background(), query,
		account.CurrentPoints, account.LifetimePoints,
		account.LastPurchaseAt, account.UpdatedAt, account.ID)
	if err != nil {
		return fmt.Errorf("update loyalty points: %w", err)
	}
	return nil
}

// CreateMovement inserta un asiento del ledger de puntos.
func (r *LoyaltyRepo) CreateMovement(m *entity.LoyaltyMovement) error {
	query := `
		INSERT INTO movimientos_fidelizacion
			(id, cliente_id, sucursal_id, venta_id, tipo, puntos,
			 puntos_anteriores, puntos_nuevos, detalle, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.AccountID, m.LocationID, m.SaleID, m.Kind, m.Points,
		m.PointsBefore, m.PointsAfter, m.Detail, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create loyalty movement: %w", err)
	}
	return nil
}

// FindAccrualBySale devuelve la acumulación de una venta solo si no tiene un
// ajuste posterior que la revierta; nil si no hubo o ya se revirtió.
func (r *LoyaltyRepo) FindAccrualBySale(saleID string) (*entity.LoyaltyMovement, error) {
	query := `
		SELECT m.id, m.cliente_id, m.sucursal_id, m.venta_id, m.tipo, m.puntos,
		       m.puntos_anteriores, m.puntos_nuevos, m.detalle, m.fecha
		FROM movimientos_fidelizacion m
		WHERE m.venta_id = $1 AND m.tipo = $2
		  AND NOT EXISTS (
			SELECT 1 FROM movimientos_fidelizacion rev
			WHERE rev.venta_id = m.venta_id AND rev.tipo = $3 AND rev.puntos < 0
		  )`
	var m entity.LoyaltyMovement
	err := r.q.QueryRow(context.Background(), query,
		saleID, entity.LoyaltyAccrual, entity.LoyaltyAdjustment,
	).Scan(&m.ID, &m.AccountID, &m.LocationID, &m.SaleID, &m.Kind, &m.Points,
		&m.PointsBefore, &m.PointsAfter, &m.Detail, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find accrual: %w", err)
	}
	return &m, nil
}
