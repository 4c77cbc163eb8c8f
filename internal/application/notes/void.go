package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ferrepos-core/internal/application/stockledger"
	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// VoidNote anula una nota activa y libera sus reservas en la misma
// transacción. Anular una nota ya convertida, anulada o vencida falla con
// ErrNoteNotActive.
func (s *Service) VoidNote(ctx context.Context, noteID, reason, actorID string) error {
	if noteID == "" || actorID == "" {
		return fmt.Errorf("%w: nota y usuario son obligatorios", domain.ErrInvalidInput)
	}
	err := s.txRunner.Run(ctx, func(
		noteRepo repository.NoteRepository,
		_ repository.SaleRepository,
		stockRepo repository.StockRepository,
		_ repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		_ repository.LoyaltyRepository,
	) error {
		now := time.Now()
		note, err := noteRepo.GetByID(noteID)
		if err != nil {
			return err
		}
		if note == nil {
			return fmt.Errorf("%w: nota %s", domain.ErrNotFound, noteID)
		}
		if note.Status != entity.NoteStatusActive {
			return fmt.Errorf("%w: la nota %s está %s", domain.ErrNoteNotActive, note.ID, note.Status)
		}

		if err := s.ledger.ReleaseByNoteInTx(stockRepo, resRepo, note.ID, now); err != nil {
			return err
		}

		note.Status = entity.NoteStatusVoided
		note.VoidReason = reason
		note.VoidedBy = actorID
		note.UpdatedAt = now
		ok, err := noteRepo.UpdateStatusIf(note, entity.NoteStatusActive)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: la nota %s cambió de estado durante la anulación", domain.ErrNoteNotActive, note.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().
		Str("note_id", noteID).
		Str("voided_by", actorID).
		Msg("nota anulada")
	return nil
}

// VoidSale anula una venta finalizada: repone el stock de cada línea con
// movimientos de devolución, revierte los puntos acumulados (si los hubo) y
// transiciona la venta con update condicional. Todo en una transacción.
func (s *Service) VoidSale(ctx context.Context, saleID, reason, actorID string) error {
	if saleID == "" || actorID == "" {
		return fmt.Errorf("%w: venta y usuario son obligatorios", domain.ErrInvalidInput)
	}
	err := s.txRunner.Run(ctx, func(
		_ repository.NoteRepository,
		saleRepo repository.SaleRepository,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ReservationRepository,
		loyaltyRepo repository.LoyaltyRepository,
	) error {
		now := time.Now()
		sale, err := saleRepo.GetByID(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
		}
		if sale.Status != entity.SaleStatusFinalized {
			return fmt.Errorf("%w: la venta %s está %s", domain.ErrSaleNotActive, sale.ID, sale.Status)
		}
		lines, err := saleRepo.LinesBySale(sale.ID)
		if err != nil {
			return err
		}

		reference := fmt.Sprintf("ANULACION-%d", sale.SequenceNumber)
		for _, line := range lines {
			if _, err := s.ledger.RecordMovementInTx(stockRepo, movRepo, stockledger.MovementInput{
				ProductID:  line.ProductID,
				LocationID: sale.LocationID,
				Kind:       entity.MovementReturn,
				Quantity:   line.Quantity,
				Reference:  reference,
				Notes:      reason,
				ActorID:    actorID,
			}, now); err != nil {
				return err
			}
		}

		if _, err := s.loyalty.ReverseInTx(loyaltyRepo, sale.ID, now); err != nil {
			return err
		}

		sale.Status = entity.SaleStatusVoided
		sale.VoidReason = reason
		sale.VoidedBy = actorID
		sale.UpdatedAt = now
		ok, err := saleRepo.UpdateStatusIf(sale, entity.SaleStatusFinalized)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: la venta %s cambió de estado durante la anulación", domain.ErrSaleNotActive, sale.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().
		Str("sale_id", saleID).
		Str("voided_by", actorID).
		Msg("venta anulada, stock repuesto")
	return nil
}
