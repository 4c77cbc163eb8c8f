package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/application/stockledger"
	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// ConvertToSale convierte una nota activa en una venta definitiva, todo en
// una transacción: revalida disponibilidad por línea (el stock reservado por
// la propia nota cuenta como disponible), crea la venta con líneas y pagos,
// descuenta stock vía el ledger, libera las reservas de la nota y acumula
// puntos si hay cliente. El update condicional al final deja fuera al
// perdedor de una conversión o anulación concurrente.
func (s *Service) ConvertToSale(ctx context.Context, input ConvertInput) (*entity.Sale, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var sale *entity.Sale
	err := s.txRunner.Run(ctx, func(
		noteRepo repository.NoteRepository,
		saleRepo repository.SaleRepository,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		loyaltyRepo repository.LoyaltyRepository,
	) error {
		now := time.Now()

		note, err := noteRepo.GetByID(input.NoteID)
		if err != nil {
			return err
		}
		if note == nil {
			return fmt.Errorf("%w: nota %s", domain.ErrNotFound, input.NoteID)
		}
		if note.Status != entity.NoteStatusActive {
			return fmt.Errorf("%w: la nota %s está %s", domain.ErrNoteNotActive, note.ID, note.Status)
		}
		lines, err := noteRepo.LinesByNote(note.ID)
		if err != nil {
			return err
		}

		// Lo reservado por esta misma nota se suma de vuelta a lo disponible:
		// la reserva existe justamente para esta conversión.
		ownReserved := map[string]decimal.Decimal{}
		reservations, err := resRepo.ActiveByNote(note.ID)
		if err != nil {
			return err
		}
		for _, res := range reservations {
			ownReserved[res.ProductID] = ownReserved[res.ProductID].Add(res.Quantity)
		}
		for _, line := range lines {
			stock, err := stockRepo.Get(line.ProductID, note.LocationID)
			if err != nil {
				return err
			}
			effective := stock.Available().Add(ownReserved[line.ProductID])
			if effective.LessThan(line.Quantity) {
				return fmt.Errorf("%w: producto %s en sucursal %s (disponible %s, solicitado %s)",
					domain.ErrInsufficientStock, line.ProductID, note.LocationID,
					effective.String(), line.Quantity.String())
			}
		}

		if err := validatePayments(input.Payments, note.Total); err != nil {
			return err
		}

		sale = &entity.Sale{
			ID:            uuid.New().String(),
			LocationID:    note.LocationID,
			TerminalID:    input.TerminalID,
			CashierID:     input.CashierID,
			SalespersonID: note.SalespersonID,
			CustomerRef:   note.CustomerRef,
			CustomerName:  note.CustomerName,
			NoteID:        note.ID,
			DocumentKind:  input.DocumentKind,
			Subtotal:      note.Subtotal,
			DiscountTotal: note.DiscountTotal,
			TaxTotal:      note.TaxTotal,
			Total:         note.Total,
			Status:        entity.SaleStatusFinalized,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := saleRepo.Create(sale); err != nil {
			return err
		}
		for _, line := range lines {
			if err := saleRepo.CreateLine(&entity.SaleLine{
				ID:           uuid.New().String(),
				SaleID:       sale.ID,
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				UnitPrice:    line.UnitPrice,
				UnitDiscount: line.UnitDiscount,
				LineTotal:    line.LineTotal,
			}); err != nil {
				return err
			}
		}
		for _, p := range input.Payments {
			if err := saleRepo.CreatePayment(&entity.SalePayment{
				ID:            uuid.New().String(),
				SaleID:        sale.ID,
				Method:        p.Method,
				Amount:        p.Amount,
				Reference:     p.Reference,
				Authorization: p.Authorization,
				CreatedAt:     now,
			}); err != nil {
				return err
			}
		}

		reference := fmt.Sprintf("VENTA-%d", sale.SequenceNumber)
		for _, line := range lines {
			if _, err := s.ledger.RecordMovementInTx(stockRepo, movRepo, stockledger.MovementInput{
				ProductID:  line.ProductID,
				LocationID: note.LocationID,
				Kind:       entity.MovementSale,
				Quantity:   line.Quantity,
				Reference:  reference,
				ActorID:    input.ActorID,
			}, now); err != nil {
				return err
			}
		}

		if err := s.ledger.ReleaseByNoteInTx(stockRepo, resRepo, note.ID, now); err != nil {
			return err
		}

		if note.CustomerRef != "" {
			if _, err := s.loyalty.AccrueInTx(loyaltyRepo, note.CustomerRef, sale.ID, note.LocationID, note.Total, now); err != nil {
				return err
			}
		}

		note.Status = entity.NoteStatusConverted
		note.ConvertedSaleID = sale.ID
		note.UpdatedAt = now
		ok, err := noteRepo.UpdateStatusIf(note, entity.NoteStatusActive)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: la nota %s cambió de estado durante la conversión", domain.ErrNoteNotActive, note.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("note_id", input.NoteID).
		Str("sale_id", sale.ID).
		Int64("sequence", sale.SequenceNumber).
		Str("total", sale.Total.String()).
		Msg("nota convertida en venta")
	return sale, nil
}

// validatePayments exige que los pagos, si vienen, cubran el total exacto con
// la misma tolerancia de redondeo que los totales de la nota.
func validatePayments(payments []PaymentInput, total decimal.Decimal) error {
	if len(payments) == 0 {
		return nil
	}
	var sum decimal.Decimal
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	if sum.Sub(total).Abs().GreaterThan(entity.TotalsTolerance) {
		return fmt.Errorf("%w: los pagos suman %s y el total es %s",
			domain.ErrInvalidTotals, sum.StringFixed(2), total.StringFixed(2))
	}
	return nil
}
