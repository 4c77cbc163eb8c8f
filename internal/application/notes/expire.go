package notes

import (
	"context"
	"time"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// expireBatchSize limita cuántas notas procesa una pasada del barrido.
const expireBatchSize = 200

// ExpireNotes barre las notas activas vencidas a la fecha dada y las pasa a
// vencida, liberando sus reservas. Cada nota corre en su propia transacción
// con update condicional: si una conversión o anulación concurrente gana la
// carrera, la nota simplemente se salta. Devuelve cuántas venció.
func (s *Service) ExpireNotes(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.noteRepo.ListExpired(now, expireBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return expired, ctx.Err()
		default:
		}
		ok, err := s.expireOne(ctx, candidate.ID, now)
		if err != nil {
			s.log.Error().Err(err).
				Str("note_id", candidate.ID).
				Msg("no se pudo vencer la nota, se reintenta en el próximo barrido")
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		s.log.Info().
			Int("expired", expired).
			Int("candidates", len(candidates)).
			Msg("barrido de notas vencidas completado")
	}
	return expired, nil
}

func (s *Service) expireOne(ctx context.Context, noteID string, now time.Time) (bool, error) {
	var expired bool
	err := s.txRunner.Run(ctx, func(
		noteRepo repository.NoteRepository,
		_ repository.SaleRepository,
		stockRepo repository.StockRepository,
		_ repository.StockMovementRepository,
		resRepo repository.ReservationRepository,
		_ repository.LoyaltyRepository,
	) error {
		note, err := noteRepo.GetByID(noteID)
		if err != nil {
			return err
		}
		if note == nil || note.Status != entity.NoteStatusActive || note.ExpiresAt.After(now) {
			return nil // otra transacción llegó primero
		}

		note.Status = entity.NoteStatusExpired
		note.UpdatedAt = now
		ok, err := noteRepo.UpdateStatusIf(note, entity.NoteStatusActive)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := s.ledger.ReleaseByNoteInTx(stockRepo, resRepo, note.ID, now); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}

// ListExpiringBefore devuelve las notas activas que vencen antes del límite,
// para avisos de próximos vencimientos.
func (s *Service) ListExpiringBefore(ctx context.Context, limit time.Time) ([]*entity.Note, error) {
	return s.noteRepo.ListExpiringBefore(limit)
}
