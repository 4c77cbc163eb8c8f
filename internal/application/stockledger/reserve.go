package stockledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// ReserveInput entrada tipada para apartar stock a nombre de una nota.
type ReserveInput struct {
	ProductID  string
	LocationID string
	NoteID     string
	Quantity   decimal.Decimal
	TTL        time.Duration
}

// Validate verifica campos obligatorios de la reserva.
func (in ReserveInput) Validate() error {
	if in.ProductID == "" || in.LocationID == "" || in.NoteID == "" {
		return fmt.Errorf("%w: producto, sucursal y nota son obligatorios", domain.ErrInvalidInput)
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: la cantidad a reservar debe ser positiva", domain.ErrInvalidInput)
	}
	if in.TTL <= 0 {
		return fmt.Errorf("%w: la reserva necesita vigencia", domain.ErrInvalidInput)
	}
	return nil
}

// Reserve aparta stock en su propia transacción.
func (s *Service) Reserve(ctx context.Context, input ReserveInput) (*entity.Reservation, error) {
	var res *entity.Reservation
	err := s.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		_ repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
	) error {
		var err error
		res, err = s.ReserveInTx(stockRepo, resRepo, input, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("reservation_id", res.ID).
		Str("product_id", res.ProductID).
		Str("note_id", res.NoteID).
		Str("quantity", res.Quantity.String()).
		Msg("stock reservado")
	return res, nil
}

// ReserveInTx aparta stock usando los repositorios de la transacción del
// caller (creación de notas tipo reserva). Falla con ErrInsufficientStock si
// la disponibilidad no alcanza; no toca QuantityOnHand, solo el reservado.
func (s *Service) ReserveInTx(
	stockRepo repository.StockRepository,
	resRepo repository.ReservationRepository,
	input ReserveInput,
	now time.Time,
) (*entity.Reservation, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	stock, err := stockRepo.GetForUpdate(input.ProductID, input.LocationID)
	if err != nil {
		return nil, err
	}
	if stock.Available().LessThan(input.Quantity) {
		return nil, fmt.Errorf("%w: producto %s en sucursal %s (disponible %s, solicitado %s)",
			domain.ErrInsufficientStock, input.ProductID, input.LocationID,
			stock.Available().String(), input.Quantity.String())
	}

	stock.QuantityReserved = stock.QuantityReserved.Add(input.Quantity)
	stock.LastSyncedAt = now
	if err := stockRepo.Upsert(stock); err != nil {
		return nil, err
	}

	res := &entity.Reservation{
		ID:         uuid.New().String(),
		ProductID:  input.ProductID,
		LocationID: input.LocationID,
		NoteID:     input.NoteID,
		Quantity:   input.Quantity,
		Status:     entity.ReservationActive,
		ExpiresAt:  now.Add(input.TTL),
		CreatedAt:  now,
	}
	if err := resRepo.Create(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Release libera una reserva por id en su propia transacción. Liberar una
// reserva ya liberada es un no-op, no un error.
func (s *Service) Release(ctx context.Context, reservationID string) error {
	if reservationID == "" {
		return fmt.Errorf("%w: falta el id de la reserva", domain.ErrInvalidInput)
	}
	return s.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		_ repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
	) error {
		res, err := resRepo.GetByIDForUpdate(reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("%w: reserva %s", domain.ErrNotFound, reservationID)
		}
		return s.releaseOneInTx(stockRepo, resRepo, res, time.Now())
	})
}

// ReleaseByNote libera todas las reservas activas de una nota en su propia
// transacción.
func (s *Service) ReleaseByNote(ctx context.Context, noteID string) error {
	if noteID == "" {
		return fmt.Errorf("%w: falta el id de la nota", domain.ErrInvalidInput)
	}
	return s.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		_ repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
	) error {
		return s.ReleaseByNoteInTx(stockRepo, resRepo, noteID, time.Now())
	})
}

// ReleaseByNoteInTx libera las reservas activas de una nota usando los
// repositorios de la transacción del caller (conversión, anulación, barrido).
func (s *Service) ReleaseByNoteInTx(
	stockRepo repository.StockRepository,
	resRepo repository.ReservationRepository,
	noteID string,
	now time.Time,
) error {
	reservations, err := resRepo.ActiveByNote(noteID)
	if err != nil {
		return err
	}
	for _, res := range reservations {
		if err := s.releaseOneInTx(stockRepo, resRepo, res, now); err != nil {
			return err
		}
	}
	return nil
}

// releaseOneInTx descuenta el reservado (con piso en cero, para tolerar
// dobles liberaciones) y marca la reserva liberada.
func (s *Service) releaseOneInTx(
	stockRepo repository.StockRepository,
	resRepo repository.ReservationRepository,
	res *entity.Reservation,
	now time.Time,
) error {
	if res.Status == entity.ReservationReleased {
		return nil // idempotente
	}

	stock, err := stockRepo.GetForUpdate(res.ProductID, res.LocationID)
	if err != nil {
		return err
	}
	newReserved := stock.QuantityReserved.Sub(res.Quantity)
	if newReserved.LessThan(decimal.Zero) {
		newReserved = decimal.Zero
	}
	stock.QuantityReserved = newReserved
	stock.LastSyncedAt = now
	if err := stockRepo.Upsert(stock); err != nil {
		return err
	}
	return resRepo.MarkReleased(res.ID, now)
}
