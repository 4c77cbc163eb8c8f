package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ferrepos-core/internal/application/reports"
	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
	"github.com/jhoicas/ferrepos-core/pkg/concurrency"
	"github.com/jhoicas/ferrepos-core/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeStockRepo struct {
	rows []*entity.Stock
	low  []*entity.Stock
}

func (r *fakeStockRepo) Get(productID, locationID string) (*entity.Stock, error) { return nil, nil }
func (r *fakeStockRepo) GetForUpdate(productID, locationID string) (*entity.Stock, error) {
	return nil, nil
}
func (r *fakeStockRepo) Upsert(stock *entity.Stock) error { return nil }
func (r *fakeStockRepo) ListByLocation(locationID string, productIDs []string) ([]*entity.Stock, error) {
	return r.rows, nil
}
func (r *fakeStockRepo) ListLowStock(locationID string) ([]*entity.Stock, error) {
	return r.low, nil
}

type fakeSaleRepo struct {
	sales []*entity.Sale
}

func (r *fakeSaleRepo) Create(sale *entity.Sale) error                    { return nil }
func (r *fakeSaleRepo) CreateLine(line *entity.SaleLine) error            { return nil }
func (r *fakeSaleRepo) CreatePayment(p *entity.SalePayment) error         { return nil }
func (r *fakeSaleRepo) GetByID(id string) (*entity.Sale, error)           { return nil, nil }
func (r *fakeSaleRepo) LinesBySale(id string) ([]*entity.SaleLine, error) { return nil, nil }
func (r *fakeSaleRepo) UpdateStatusIf(sale *entity.Sale, from string) (bool, error) {
	return false, nil
}
func (r *fakeSaleRepo) ListByPeriod(locationID string, from, to time.Time) ([]*entity.Sale, error) {
	return r.sales, nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.products[id], nil
}
func (r *fakeProductRepo) Search(f repository.ProductFilter) ([]*entity.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) Count(f repository.ProductFilter) (int64, error) { return 0, nil }
func (r *fakeProductRepo) UpdateCost(id string, c decimal.Decimal) error   { return nil }

type fakeLocationRepo struct {
	locations map[string]*entity.Location
}

func (r *fakeLocationRepo) GetByID(id string) (*entity.Location, error) {
	return r.locations[id], nil
}

func newReports(t *testing.T, stocks *fakeStockRepo, sales *fakeSaleRepo, products *fakeProductRepo) (*reports.Service, *concurrency.WorkerPool) {
	t.Helper()
	pool := concurrency.NewWorkerPool(2, 4)
	t.Cleanup(pool.Close)
	locations := &fakeLocationRepo{locations: map[string]*entity.Location{
		"suc-1": {ID: "suc-1", Code: "S1", Name: "Casa Matriz", Enabled: true},
	}}
	return reports.NewService(pool, stocks, sales, products, locations, logger.Nop()), pool
}

func TestGenerateStockSnapshotValoriza(t *testing.T) {
	stocks := &fakeStockRepo{rows: []*entity.Stock{
		{ProductID: "p1", LocationID: "suc-1", QuantityOnHand: dec("10"),
			QuantityReserved: dec("2"), AverageCost: dec("150")},
		{ProductID: "p2", LocationID: "suc-1", QuantityOnHand: dec("4"),
			AverageCost: dec("99.50")},
	}}
	products := &fakeProductRepo{products: map[string]*entity.Product{
		"p1": {ID: "p1", Description: "Martillo"},
		"p2": {ID: "p2", Description: "Serrucho"},
	}}
	svc, _ := newReports(t, stocks, &fakeSaleRepo{}, products)

	snapshot, err := svc.GenerateStockSnapshot(context.Background(), "suc-1")
	require.NoError(t, err)

	assert.Equal(t, "Casa Matriz", snapshot.LocationName)
	require.Len(t, snapshot.Rows, 2)
	assert.True(t, snapshot.Rows[0].Available.Equal(dec("8")))
	assert.True(t, snapshot.Rows[0].StockValue.Equal(dec("1500")))
	// 10*150 + 4*99.50 = 1898
	assert.True(t, snapshot.TotalValue.Equal(dec("1898")), "got %s", snapshot.TotalValue)
}

func TestGenerateStockSnapshotSucursalInexistente(t *testing.T) {
	svc, _ := newReports(t, &fakeStockRepo{}, &fakeSaleRepo{}, &fakeProductRepo{})
	_, err := svc.GenerateStockSnapshot(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateLowStockCalculaDeficit(t *testing.T) {
	stocks := &fakeStockRepo{low: []*entity.Stock{
		{ProductID: "p1", LocationID: "suc-1", QuantityOnHand: dec("2"), QuantityReserved: dec("1")},
	}}
	products := &fakeProductRepo{products: map[string]*entity.Product{
		"p1": {ID: "p1", Description: "Martillo", MinStock: dec("5")},
	}}
	svc, _ := newReports(t, stocks, &fakeSaleRepo{}, products)

	rows, err := svc.GenerateLowStock(context.Background(), "suc-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Available.Equal(dec("1")))
	assert.True(t, rows[0].Deficit.Equal(dec("4")), "mínimo 5 - disponible 1")
}

func TestGenerateSalesSummarySeparaAnuladas(t *testing.T) {
	now := time.Now()
	sales := &fakeSaleRepo{sales: []*entity.Sale{
		{ID: "v1", DocumentKind: "boleta", Status: entity.SaleStatusFinalized, Total: dec("10000")},
		{ID: "v2", DocumentKind: "factura", Status: entity.SaleStatusFinalized, Total: dec("25000")},
		{ID: "v3", DocumentKind: "boleta", Status: entity.SaleStatusVoided, Total: dec("99999")},
	}}
	svc, _ := newReports(t, &fakeStockRepo{}, sales, &fakeProductRepo{})

	summary, err := svc.GenerateSalesSummary(context.Background(), "suc-1", now.Add(-24*time.Hour), now)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SaleCount)
	assert.Equal(t, 1, summary.VoidCount)
	assert.True(t, summary.GrossTotal.Equal(dec("35000")), "las anuladas no suman")
	assert.True(t, summary.ByDocument["boleta"].Equal(dec("10000")))
	assert.True(t, summary.ByDocument["factura"].Equal(dec("25000")))
}

func TestGenerateSalesSummaryPeriodoInvalido(t *testing.T) {
	svc, _ := newReports(t, &fakeStockRepo{}, &fakeSaleRepo{}, &fakeProductRepo{})
	now := time.Now()
	_, err := svc.GenerateSalesSummary(context.Background(), "suc-1", now, now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportesConPoolCerrado(t *testing.T) {
	svc, pool := newReports(t, &fakeStockRepo{}, &fakeSaleRepo{}, &fakeProductRepo{})
	pool.Close()

	_, err := svc.GenerateStockSnapshot(context.Background(), "suc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrencyTimeout,
		"la saturación del pool se traduce al error de dominio")
}
