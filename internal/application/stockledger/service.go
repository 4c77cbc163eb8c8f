package stockledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/ledger"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
	"github.com/jhoicas/ferrepos-core/pkg/logger"
)

// Service es el ledger de stock: dueño único de las existencias por
// (producto, sucursal) y del registro inmutable de movimientos. Toda
// escritura bloquea la fila de stock (SELECT FOR UPDATE) antes de calcular
// deltas, serializando escritores concurrentes del mismo par y dejando en
// paralelo a los demás.
type Service struct {
	txRunner  TxRunner
	stockRepo repository.StockRepository         // lecturas fuera de tx
	movRepo   repository.StockMovementRepository // lecturas fuera de tx
	log       *logger.Logger
}

// NewService construye el ledger.
func NewService(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		txRunner:  txRunner,
		stockRepo: stockRepo,
		movRepo:   movRepo,
		log:       log.Component("stockledger"),
	}
}

// MovementInput entrada tipada para registrar un movimiento.
// Quantity es positiva para todos los tipos salvo ajuste, donde es el delta
// con signo. UnitCost solo aplica en entradas: recalcula el costo promedio.
type MovementInput struct {
	ProductID  string
	LocationID string
	Kind       string
	Quantity   decimal.Decimal
	UnitCost   *decimal.Decimal
	Reference  string
	Notes      string
	ActorID    string
}

// Validate verifica campos obligatorios y convenciones de signo.
func (in MovementInput) Validate() error {
	if in.ProductID == "" || in.LocationID == "" || in.ActorID == "" {
		return fmt.Errorf("%w: producto, sucursal y usuario son obligatorios", domain.ErrInvalidInput)
	}
	if !entity.ValidMovementKind(in.Kind) {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Kind)
	}
	if in.Kind == entity.MovementAdjustment {
		if in.Quantity.IsZero() {
			return fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidInput)
		}
		return nil
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	return nil
}

// RecordMovement registra un movimiento en su propia transacción: bloquea la
// fila de stock, aplica la convención de signo del tipo, rechaza resultados
// negativos y deja el asiento en el ledger.
func (s *Service) RecordMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	var mov *entity.StockMovement
	err := s.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ReservationRepository,
	) error {
		var err error
		mov, err = s.RecordMovementInTx(stockRepo, movRepo, input, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("location_id", mov.LocationID).
		Str("kind", mov.Kind).
		Str("quantity", mov.Quantity.String()).
		Msg("movimiento de stock registrado")
	return mov, nil
}

// RecordMovementInTx aplica un movimiento usando los repositorios de la
// transacción del caller (conversión de notas, anulación de ventas). El
// caller es responsable del Commit/Rollback.
func (s *Service) RecordMovementInTx(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	input MovementInput,
	now time.Time,
) (*entity.StockMovement, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Bloquea (o crea en cero y bloquea) la fila de stock
	stock, err := stockRepo.GetForUpdate(input.ProductID, input.LocationID)
	if err != nil {
		return nil, err
	}

	signed := input.Quantity
	if input.Kind != entity.MovementAdjustment && entity.MovementSign(input.Kind) < 0 {
		signed = input.Quantity.Neg()
	}

	before := stock.QuantityOnHand
	after := before.Add(signed)
	if after.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: producto %s en sucursal %s (existencia %s, solicitado %s)",
			domain.ErrInsufficientStock, input.ProductID, input.LocationID,
			before.String(), signed.Abs().String())
	}

	// Entradas con costo recalculan el promedio ponderado
	if input.UnitCost != nil && signed.GreaterThan(decimal.Zero) {
		stock.AverageCost = ledger.AverageCost(before, stock.AverageCost, signed, *input.UnitCost)
	}

	stock.QuantityOnHand = after
	stock.LastSyncedAt = now
	if err := stockRepo.Upsert(stock); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      input.ProductID,
		LocationID:     input.LocationID,
		Kind:           input.Kind,
		Quantity:       signed,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reference:      input.Reference,
		Notes:          input.Notes,
		ActorID:        input.ActorID,
		CreatedAt:      now,
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// TransferInput entrada tipada para trasladar stock entre sucursales.
type TransferInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	ActorID        string
	Notes          string
}

// Validate verifica campos obligatorios del traslado.
func (in TransferInput) Validate() error {
	if in.ProductID == "" || in.FromLocationID == "" || in.ToLocationID == "" || in.ActorID == "" {
		return fmt.Errorf("%w: producto, sucursales y usuario son obligatorios", domain.ErrInvalidInput)
	}
	if in.FromLocationID == in.ToLocationID {
		return fmt.Errorf("%w: origen y destino no pueden ser la misma sucursal", domain.ErrInvalidInput)
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	return nil
}

// Transfer resta en la sucursal origen y suma en la destino como dos
// movimientos que comparten una misma referencia, dentro de una sola
// transacción: si el origen no alcanza, no se mueve nada en ninguna.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (reference string, err error) {
	if err := input.Validate(); err != nil {
		return "", err
	}
	reference = "TRANSFER-" + uuid.New().String()
	err = s.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ReservationRepository,
	) error {
		now := time.Now()

		// El origen valida contra la disponibilidad: el stock reservado
		// de una nota no se puede trasladar por debajo.
		origin, err := stockRepo.GetForUpdate(input.ProductID, input.FromLocationID)
		if err != nil {
			return err
		}
		if origin.Available().LessThan(input.Quantity) {
			return fmt.Errorf("%w: producto %s en sucursal origen %s (disponible %s, solicitado %s)",
				domain.ErrInsufficientStock, input.ProductID, input.FromLocationID,
				origin.Available().String(), input.Quantity.String())
		}

		if _, err := s.RecordMovementInTx(stockRepo, movRepo, MovementInput{
			ProductID:  input.ProductID,
			LocationID: input.FromLocationID,
			Kind:       entity.MovementTransferOut,
			Quantity:   input.Quantity,
			Reference:  reference,
			Notes:      input.Notes,
			ActorID:    input.ActorID,
		}, now); err != nil {
			return err
		}
		_, err = s.RecordMovementInTx(stockRepo, movRepo, MovementInput{
			ProductID:  input.ProductID,
			LocationID: input.ToLocationID,
			Kind:       entity.MovementTransferIn,
			Quantity:   input.Quantity,
			Reference:  reference,
			Notes:      input.Notes,
			ActorID:    input.ActorID,
		}, now)
		return err
	})
	if err != nil {
		return "", err
	}
	s.log.Info().
		Str("product_id", input.ProductID).
		Str("from", input.FromLocationID).
		Str("to", input.ToLocationID).
		Str("quantity", input.Quantity.String()).
		Str("reference", reference).
		Msg("transferencia de stock completada")
	return reference, nil
}

// AdjustInput entrada tipada para un ajuste de inventario por conteo físico.
type AdjustInput struct {
	ProductID       string
	LocationID      string
	CountedQuantity decimal.Decimal
	ActorID         string
	Notes           string
}

// Adjust registra como ajuste la diferencia entre la cantidad contada y la
// del sistema. Un conteo sin diferencia se rechaza: no ensucia el ledger.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (*entity.StockMovement, error) {
	if input.ProductID == "" || input.LocationID == "" || input.ActorID == "" {
		return nil, fmt.Errorf("%w: producto, sucursal y usuario son obligatorios", domain.ErrInvalidInput)
	}
	if input.CountedQuantity.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: la cantidad contada no puede ser negativa", domain.ErrInvalidInput)
	}
	var mov *entity.StockMovement
	err := s.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ReservationRepository,
	) error {
		now := time.Now()
		stock, err := stockRepo.GetForUpdate(input.ProductID, input.LocationID)
		if err != nil {
			return err
		}
		delta := input.CountedQuantity.Sub(stock.QuantityOnHand)
		if delta.IsZero() {
			return fmt.Errorf("%w: no hay diferencia entre cantidad física y sistema", domain.ErrInvalidInput)
		}
		mov, err = s.RecordMovementInTx(stockRepo, movRepo, MovementInput{
			ProductID:  input.ProductID,
			LocationID: input.LocationID,
			Kind:       entity.MovementAdjustment,
			Quantity:   delta,
			Reference:  "AJUSTE-" + uuid.New().String(),
			Notes:      input.Notes,
			ActorID:    input.ActorID,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("product_id", input.ProductID).
		Str("location_id", input.LocationID).
		Str("delta", mov.Quantity.String()).
		Msg("ajuste de inventario realizado")
	return mov, nil
}
