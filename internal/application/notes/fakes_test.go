package notes_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/application/notes"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria para el ciclo de vida de notas. El mutex del runner emula
// la serialización por fila del SELECT FOR UPDATE.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu           sync.Mutex
	stocks       map[string]*entity.Stock
	movements    []*entity.StockMovement
	reservations map[string]*entity.Reservation
	notes        map[string]*entity.Note
	noteLines    map[string][]*entity.NoteLine
	sales        map[string]*entity.Sale
	saleLines    map[string][]*entity.SaleLine
	payments     map[string][]*entity.SalePayment
	accounts     map[string]*entity.LoyaltyAccount
	loyaltyMovs  []*entity.LoyaltyMovement
	products     map[string]*entity.Product
	noteSeq      int64
	saleSeq      int64
}

func newMemStore() *memStore {
	return &memStore{
		stocks:       map[string]*entity.Stock{},
		reservations: map[string]*entity.Reservation{},
		notes:        map[string]*entity.Note{},
		noteLines:    map[string][]*entity.NoteLine{},
		sales:        map[string]*entity.Sale{},
		saleLines:    map[string][]*entity.SaleLine{},
		payments:     map[string][]*entity.SalePayment{},
		accounts:     map[string]*entity.LoyaltyAccount{},
		products:     map[string]*entity.Product{},
	}
}

func stockKey(productID, locationID string) string { return productID + "|" + locationID }

func (s *memStore) setStock(productID, locationID string, onHand, reserved decimal.Decimal) {
	s.stocks[stockKey(productID, locationID)] = &entity.Stock{
		ProductID: productID, LocationID: locationID,
		QuantityOnHand: onHand, QuantityReserved: reserved,
		AverageCost: decimal.Zero, LastSyncedAt: time.Now(),
	}
}

func (s *memStore) addProduct(id string, active bool) {
	s.products[id] = &entity.Product{
		ID: id, InternalCode: "COD-" + id, Description: "Producto " + id,
		Price: decimal.NewFromInt(1000), Active: active,
	}
}

// ── stock ────────────────────────────────────────────────────────────────────

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
	return nil, nil
}

func (r *memStockRepo) ListLowStock(locationID string) ([]*entity.Stock, error) {
	return nil, nil
}

// ── movimientos ──────────────────────────────────────────────────────────────

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	clone := *m
	r.s.movements = append(r.s.movements, &clone)
	return nil
}

func (r *memMovementRepo) ListByProduct(productID, locationID string, from, to *time.Time, limit int) ([]*entity.StockMovement, error) {
	return nil, nil
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

// ── reservas ─────────────────────────────────────────────────────────────────

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
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
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

// ── notas ────────────────────────────────────────────────────────────────────

type memNoteRepo struct{ s *memStore }

func (r *memNoteRepo) Create(note *entity.Note) error {
	r.s.noteSeq++
	note.SequenceNumber = r.s.noteSeq
	clone := *note
	r.s.notes[note.ID] = &clone
	return nil
}

func (r *memNoteRepo) CreateLine(line *entity.NoteLine) error {
	clone := *line
	r.s.noteLines[line.NoteID] = append(r.s.noteLines[line.NoteID], &clone)
	return nil
}

func (r *memNoteRepo) GetByID(id string) (*entity.Note, error) {
	if n, ok := r.s.notes[id]; ok {
		clone := *n
		return &clone, nil
	}
	return nil, nil
}

func (r *memNoteRepo) LinesByNote(noteID string) ([]*entity.NoteLine, error) {
	return r.s.noteLines[noteID], nil
}

func (r *memNoteRepo) UpdateStatusIf(note *entity.Note, fromStatus string) (bool, error) {
	current, ok := r.s.notes[note.ID]
	if !ok || current.Status != fromStatus {
		return false, nil
	}
	clone := *note
	r.s.notes[note.ID] = &clone
	return true, nil
}

func (r *memNoteRepo) ListExpired(now time.Time, limit int) ([]*entity.Note, error) {
	var result []*entity.Note
	for _, n := range r.s.notes {
		if n.Status == entity.NoteStatusActive && n.ExpiresAt.Before(now) {
			clone := *n
			result = append(result, &clone)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *memNoteRepo) ListExpiringBefore(limit time.Time) ([]*entity.Note, error) {
	var result []*entity.Note
	for _, n := range r.s.notes {
		if n.Status == entity.NoteStatusActive && n.ExpiresAt.Before(limit) {
			clone := *n
			result = append(result, &clone)
		}
	}
	return result, nil
}

// ── ventas ───────────────────────────────────────────────────────────────────

type memSaleRepo struct{ s *memStore }

func (r *memSaleRepo) Create(sale *entity.Sale) error {
	r.s.saleSeq++
	sale.SequenceNumber = r.s.saleSeq
	clone := *sale
	r.s.sales[sale.ID] = &clone
	return nil
}

func (r *memSaleRepo) CreateLine(line *entity.SaleLine) error {
	clone := *line
	r.s.saleLines[line.SaleID] = append(r.s.saleLines[line.SaleID], &clone)
	return nil
}

func (r *memSaleRepo) CreatePayment(payment *entity.SalePayment) error {
	clone := *payment
	r.s.payments[payment.SaleID] = append(r.s.payments[payment.SaleID], &clone)
	return nil
}

func (r *memSaleRepo) GetByID(id string) (*entity.Sale, error) {
	if s, ok := r.s.sales[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, nil
}

func (r *memSaleRepo) LinesBySale(saleID string) ([]*entity.SaleLine, error) {
	return r.s.saleLines[saleID], nil
}

func (r *memSaleRepo) UpdateStatusIf(sale *entity.Sale, fromStatus string) (bool, error) {
	current, ok := r.s.sales[sale.ID]
	if !ok || current.Status != fromStatus {
		return false, nil
	}
	clone := *sale
	r.s.sales[sale.ID] = &clone
	return true, nil
}

func (r *memSaleRepo) ListByPeriod(locationID string, from, to time.Time) ([]*entity.Sale, error) {
	var result []*entity.Sale
	for _, s := range r.s.sales {
		if s.LocationID == locationID && !s.CreatedAt.Before(from) && s.CreatedAt.Before(to) {
			clone := *s
			result = append(result, &clone)
		}
	}
	return result, nil
}

// ── fidelización ─────────────────────────────────────────────────────────────

type memLoyaltyRepo struct{ s *memStore }

func (r *memLoyaltyRepo) GetByCustomerRefForUpdate(customerRef string) (*entity.LoyaltyAccount, error) {
	for _, a := range r.s.accounts {
		if a.CustomerRef == customerRef && a.Active {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memLoyaltyRepo) GetByIDForUpdate(id string) (*entity.LoyaltyAccount, error) {
	if a, ok := r.s.accounts[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, nil
}

func (r *memLoyaltyRepo) UpdatePoints(account *entity.LoyaltyAccount) error {
	clone := *account
	r.s.accounts[account.ID] = &clone
	return nil
}

func (r *memLoyaltyRepo) CreateMovement(m *entity.LoyaltyMovement) error {
	clone := *m
	r.s.loyaltyMovs = append(r.s.loyaltyMovs, &clone)
	return nil
}

func (r *memLoyaltyRepo) FindAccrualBySale(saleID string) (*entity.LoyaltyMovement, error) {
	var accrual *entity.LoyaltyMovement
	for _, m := range r.s.loyaltyMovs {
		if m.SaleID != saleID {
			continue
		}
		if m.Kind == entity.LoyaltyAccrual {
			clone := *m
			accrual = &clone
		}
		if m.Kind == entity.LoyaltyAdjustment && m.Points < 0 {
			return nil, nil // ya revertida
		}
	}
	return accrual, nil
}

// ── productos ────────────────────────────────────────────────────────────────

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	if p, ok := r.s.products[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

func (r *memProductRepo) Search(filter repository.ProductFilter) ([]*entity.Product, error) {
	return nil, nil
}

func (r *memProductRepo) Count(filter repository.ProductFilter) (int64, error) { return 0, nil }

func (r *memProductRepo) UpdateCost(id string, cost decimal.Decimal) error { return nil }

// ── runners ──────────────────────────────────────────────────────────────────

type memNoteTxRunner struct{ s *memStore }

func (r *memNoteTxRunner) Run(ctx context.Context, fn func(
	noteRepo repository.NoteRepository,
	saleRepo repository.SaleRepository,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
	loyaltyRepo repository.LoyaltyRepository,
) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&memNoteRepo{r.s}, &memSaleRepo{r.s}, &memStockRepo{r.s},
		&memMovementRepo{r.s}, &memReservationRepo{r.s}, &memLoyaltyRepo{r.s})
}

type memLedgerTxRunner struct{ s *memStore }

func (r *memLedgerTxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	resRepo repository.ReservationRepository,
) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&memStockRepo{r.s}, &memMovementRepo{r.s}, &memReservationRepo{r.s})
}

var _ notes.TxRunner = (*memNoteTxRunner)(nil)
