package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ferrepos-core/internal/application/stockledger"
	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// CreateNote crea una cotización o una reserva. Valida la aritmética de
// totales con tolerancia de 0.01, verifica que cada línea tenga disponibilidad
// en la sucursal y, para las reservas, aparta el stock en la misma
// transacción. Las cotizaciones no tocan stock: la verificación es solo
// informativa al momento de crear.
func (s *Service) CreateNote(ctx context.Context, input NoteInput) (*entity.Note, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	ttl := s.quoteTTL
	if input.Kind == entity.NoteKindHold {
		ttl = s.holdTTL
	}

	note := &entity.Note{
		ID:            uuid.New().String(),
		LocationID:    input.LocationID,
		SalespersonID: input.SalespersonID,
		CustomerRef:   input.CustomerRef,
		CustomerName:  input.CustomerName,
		Kind:          input.Kind,
		Subtotal:      input.Subtotal,
		DiscountTotal: input.DiscountTotal,
		TaxTotal:      input.TaxTotal,
		Total:         input.Total,
		Status:        entity.NoteStatusActive,
		Notes:         input.Notes,
		ExpiresAt:     now.Add(ttl),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	lines := make([]*entity.NoteLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		lines = append(lines, &entity.NoteLine{
			ID:           uuid.New().String(),
			NoteID:       note.ID,
			ProductID:    in.ProductID,
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitPrice,
			UnitDiscount: in.UnitDiscount,
			LineTotal:    in.LineTotal,
			Notes:        in.Notes,
		})
	}
	if !note.ValidateTotals(lines) {
		return nil, fmt.Errorf("%w: los totales de la nota no calzan con sus líneas", domain.ErrInvalidTotals)
	}

	// Los productos se validan fuera de la transacción: el catálogo no cambia
	// al ritmo del stock.
	for _, line := range lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.Active {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, line.ProductID)
		}
	}

	err := s.txRunner.Run(ctx, func(
		noteRepo repository.NoteRepository,
		_ repository.SaleRepository,
		stockRepo repository.StockRepository,
		_ repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		_ repository.LoyaltyRepository,
	) error {
		for _, line := range lines {
			stock, err := stockRepo.Get(line.ProductID, note.LocationID)
			if err != nil {
				return err
			}
			if stock.Available().LessThan(line.Quantity) {
				return fmt.Errorf("%w: producto %s en sucursal %s (disponible %s, solicitado %s)",
					domain.ErrInsufficientStock, line.ProductID, note.LocationID,
					stock.Available().String(), line.Quantity.String())
			}
		}

		if err := noteRepo.Create(note); err != nil {
			return err
		}
		for _, line := range lines {
			if err := noteRepo.CreateLine(line); err != nil {
				return err
			}
		}

		if note.Kind != entity.NoteKindHold {
			return nil
		}
		// Las reservas bloquean la fila de stock y revalidan bajo el lock.
		for _, line := range lines {
			if _, err := s.ledger.ReserveInTx(stockRepo, resRepo, stockledger.ReserveInput{
				ProductID:  line.ProductID,
				LocationID: note.LocationID,
				NoteID:     note.ID,
				Quantity:   line.Quantity,
				TTL:        ttl,
			}, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("note_id", note.ID).
		Int64("sequence", note.SequenceNumber).
		Str("kind", note.Kind).
		Str("location_id", note.LocationID).
		Str("total", note.Total.String()).
		Msg("nota de venta creada")
	return note, nil
}
