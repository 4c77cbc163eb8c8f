package notes

import (
	"context"
	"fmt"

	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
)

// GetNote devuelve la nota completa: cabecera, líneas y reservas activas.
func (s *Service) GetNote(ctx context.Context, noteID string) (*NoteDetail, error) {
	if noteID == "" {
		return nil, fmt.Errorf("%w: falta el id de la nota", domain.ErrInvalidInput)
	}
	note, err := s.noteRepo.GetByID(noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("%w: nota %s", domain.ErrNotFound, noteID)
	}
	lines, err := s.noteRepo.LinesByNote(noteID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.resRepo.ActiveByNote(noteID)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: note, Lines: lines, Reservations: reservations}, nil
}

// GetSale devuelve una venta con sus líneas.
func (s *Service) GetSale(ctx context.Context, saleID string) (*entity.Sale, []*entity.SaleLine, error) {
	if saleID == "" {
		return nil, nil, fmt.Errorf("%w: falta el id de la venta", domain.ErrInvalidInput)
	}
	sale, err := s.saleRepo.GetByID(saleID)
	if err != nil {
		return nil, nil, err
	}
	if sale == nil {
		return nil, nil, fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
	}
	lines, err := s.saleRepo.LinesBySale(saleID)
	if err != nil {
		return nil, nil, err
	}
	return sale, lines, nil
}
