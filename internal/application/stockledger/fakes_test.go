package stockledger_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/application/stockledger"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. El mutex del runner emula la serialización que en
// producción impone el SELECT FOR UPDATE sobre la fila de stock.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu           sync.Mutex
	stocks       map[string]*entity.Stock
	movements    []*entity.StockMovement
	reservations map[string]*entity.Reservation
}

func newMemStore() *memStore {
	return &memStore{
		stocks:       map[string]*entity.Stock{},
		reservations: map[string]*entity.Reservation{},
	}
}

func stockKey(productID, locationID string) string { return productID + "|" + locationID }

type memStockRepo struct{ s *memStore }

func (r *memStockRepo) Get(productID, locationID string) (*entity.Stock, error) {
	if st, ok := r.s.stocks[stockKey(productID, locationID)]; ok {
		clone := *st
		return &clone, nil
	}
	return &entity.Stock{
		ProductID: productID, LocationID: locationID,
		QuantityOnHand: decimal.Zero, QuantityReserved: decimal.Zero,
		AverageCost: decimal.Zero, LastSyncedAt: time.Now(),
	}, nil
}

func (r *memStockRepo) GetForUpdate(productID, locationID string) (*entity.Stock, error) {
	return r.Get(productID, locationID)
}

func (r *memStockRepo) Upsert(stock *entity.Stock) error {
	clone := *stock
	r.s.stocks[stockKey(stock.ProductID, stock.LocationID)] = &clone
	return nil
}

func (r *memStockRepo) ListByLocation(locationID string, productIDs []string) ([]*entity.Stock, error) {
	var result []*entity.Stock
	for _, st := range r.s.stocks {
		if st.LocationID != locationID {
			continue
		}
		if len(productIDs) > 0 {
			found := false
			for _, id := range productIDs {
				if id == st.ProductID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		clone := *st
		result = append(result, &clone)
	}
	return result, nil
}

func (r *memStockRepo) ListLowStock(locationID string) ([]*entity.Stock, error) {
	return nil, nil
}

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	clone := *m
	r.s.movements = append(r.s.movements, &clone)
	return nil
}

func (r *memMovementRepo) ListByProduct(productID, locationID string, from, to *time.Time, limit int) ([]*entity.StockMovement, error) {
	var result []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0 && len(result) < limit; i-- {
		m := r.s.movements[i]
		if m.ProductID == productID && m.LocationID == locationID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *memMovementRepo) SumByProduct(productID, locationID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.LocationID == locationID {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

type memReservationRepo struct{ s *memStore }

func (r *memReservationRepo) Create(res *entity.Reservation) error {
	clone := *res
	r.s.reservations[res.ID] = &clone
	return nil
}

func (r *memReservationRepo) GetByID(id string) (*entity.Reservation, error) {
	if res, ok := r.s.reservations[id]; ok {
		clone := *res
		return &clone, nil
	}
	return nil, nil
}

func (r *memReservationRepo) GetByIDForUpdate(id string) (*entity.Reservation, error) {
	return r.GetByID(id)
}

func (r *memReservationRepo) ActiveByNote(noteID string) ([]*entity.Reservation, error) {
	var result []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.NoteID == noteID && res.Status == entity.ReservationActive {
			clone := *res
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *memReservationRepo) MarkReleased(id string, at time.Time) error {
	if res, ok := r.s.reservations[id]; ok {
		res.Status = entity.ReservationReleased
		released := at
		res.ReleasedAt = &released
	}
	return nil
}

type memTxRunner struct{ s *memStore }

func (r *memTxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&memStockRepo{r.s}, &memMovementRepo{r.s}, &memReservationRepo{r.s})
}

var _ stockledger.TxRunner = (*memTxRunner)(nil)
