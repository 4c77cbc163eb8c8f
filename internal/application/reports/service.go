// Package reports genera reportes de inventario y ventas en el pool de
// workers, fuera del camino interactivo del mostrador. Cada reporte tiene un
// timeout: si el pool está saturado el caller recibe un error de concurrencia
// en vez de esperar sin límite.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
	"github.com/jhoicas/ferrepos-core/pkg/concurrency"
	"github.com/jhoicas/ferrepos-core/pkg/logger"
)

const defaultReportTimeout = 30 * time.Second

// Service genera reportes sobre el pool de workers.
type Service struct {
	pool         *concurrency.WorkerPool
	stockRepo    repository.StockRepository
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	timeout      time.Duration
	log          *logger.Logger
}

// NewService construye el generador de reportes.
func NewService(
	pool *concurrency.WorkerPool,
	stockRepo repository.StockRepository,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		pool:         pool,
		stockRepo:    stockRepo,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		timeout:      defaultReportTimeout,
		log:          log.Component("reports"),
	}
}

// resolveLocation valida que la sucursal exista antes de generar un reporte.
func (s *Service) resolveLocation(locationID string) (*entity.Location, error) {
	if locationID == "" {
		return nil, fmt.Errorf("%w: falta la sucursal", domain.ErrInvalidInput)
	}
	location, err := s.locationRepo.GetByID(locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, locationID)
	}
	return location, nil
}

// submit corre la tarea en el pool y traduce sus errores de saturación al
// error de dominio.
func (s *Service) submit(ctx context.Context, task concurrency.Task) (any, error) {
	value, err := s.pool.Submit(ctx, task, s.timeout)
	if err != nil {
		if errors.Is(err, concurrency.ErrTimeout) || errors.Is(err, concurrency.ErrPoolClosed) {
			return nil, fmt.Errorf("%w: %v", domain.ErrConcurrencyTimeout, err)
		}
		return nil, err
	}
	return value, nil
}

// StockSnapshotRow una fila del reporte de existencias.
type StockSnapshotRow struct {
	ProductID   string
	Description string
	OnHand      decimal.Decimal
	Reserved    decimal.Decimal
	Available   decimal.Decimal
	AverageCost decimal.Decimal
	StockValue  decimal.Decimal // OnHand * AverageCost
}

// StockSnapshot es la foto valorizada del inventario de una sucursal.
type StockSnapshot struct {
	LocationID   string
	LocationName string
	GeneratedAt  time.Time
	Rows         []*StockSnapshotRow
	TotalValue   decimal.Decimal
}

// GenerateStockSnapshot arma la foto de inventario valorizado de la sucursal.
func (s *Service) GenerateStockSnapshot(ctx context.Context, locationID string) (*StockSnapshot, error) {
	location, err := s.resolveLocation(locationID)
	if err != nil {
		return nil, err
	}
	value, err := s.submit(ctx, func(taskCtx context.Context) (any, error) {
		rows, err := s.stockRepo.ListByLocation(locationID, nil)
		if err != nil {
			return nil, err
		}
		snapshot := &StockSnapshot{
			LocationID:   locationID,
			LocationName: location.Name,
			GeneratedAt:  time.Now(),
			Rows:         make([]*StockSnapshotRow, 0, len(rows)),
		}
		for _, stock := range rows {
			if err := taskCtx.Err(); err != nil {
				return nil, err
			}
			product, err := s.productRepo.GetByID(stock.ProductID)
			if err != nil {
				return nil, err
			}
			row := &StockSnapshotRow{
				ProductID:   stock.ProductID,
				OnHand:      stock.QuantityOnHand,
				Reserved:    stock.QuantityReserved,
				Available:   stock.Available(),
				AverageCost: stock.AverageCost,
				StockValue:  stock.QuantityOnHand.Mul(stock.AverageCost),
			}
			if product != nil {
				row.Description = product.Description
			}
			snapshot.Rows = append(snapshot.Rows, row)
			snapshot.TotalValue = snapshot.TotalValue.Add(row.StockValue)
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*StockSnapshot), nil
}

// LowStockRow un producto en o bajo su stock mínimo.
type LowStockRow struct {
	ProductID   string
	Description string
	Available   decimal.Decimal
	MinStock    decimal.Decimal
	Deficit     decimal.Decimal // MinStock - Available
}

// GenerateLowStock lista los productos de la sucursal cuya disponibilidad
// está en o bajo el mínimo configurado en el catálogo.
func (s *Service) GenerateLowStock(ctx context.Context, locationID string) ([]*LowStockRow, error) {
	if _, err := s.resolveLocation(locationID); err != nil {
		return nil, err
	}
	value, err := s.submit(ctx, func(taskCtx context.Context) (any, error) {
		rows, err := s.stockRepo.ListLowStock(locationID)
		if err != nil {
			return nil, err
		}
		report := make([]*LowStockRow, 0, len(rows))
		for _, stock := range rows {
			if err := taskCtx.Err(); err != nil {
				return nil, err
			}
			product, err := s.productRepo.GetByID(stock.ProductID)
			if err != nil {
				return nil, err
			}
			row := &LowStockRow{
				ProductID: stock.ProductID,
				Available: stock.Available(),
			}
			if product != nil {
				row.Description = product.Description
				row.MinStock = product.MinStock
				row.Deficit = product.MinStock.Sub(stock.Available())
			}
			report = append(report, row)
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]*LowStockRow), nil
}

// SalesSummary resume las ventas de una sucursal en un período.
type SalesSummary struct {
	LocationID string
	From       time.Time
	To         time.Time
	SaleCount  int
	VoidCount  int
	GrossTotal decimal.Decimal // ventas finalizadas
	ByDocument map[string]decimal.Decimal
}

// GenerateSalesSummary totaliza las ventas del período. Las anuladas se
// cuentan aparte y no suman al total bruto.
func (s *Service) GenerateSalesSummary(ctx context.Context, locationID string, from, to time.Time) (*SalesSummary, error) {
	if _, err := s.resolveLocation(locationID); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: el período es inválido", domain.ErrInvalidInput)
	}
	value, err := s.submit(ctx, func(taskCtx context.Context) (any, error) {
		sales, err := s.saleRepo.ListByPeriod(locationID, from, to)
		if err != nil {
			return nil, err
		}
		summary := &SalesSummary{
			LocationID: locationID,
			From:       from,
			To:         to,
			ByDocument: map[string]decimal.Decimal{},
		}
		for _, sale := range sales {
			if sale.Status == entity.SaleStatusVoided {
				summary.VoidCount++
				continue
			}
			summary.SaleCount++
			summary.GrossTotal = summary.GrossTotal.Add(sale.Total)
			summary.ByDocument[sale.DocumentKind] = summary.ByDocument[sale.DocumentKind].Add(sale.Total)
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	summary := value.(*SalesSummary)
	s.log.Debug().
		Str("location_id", locationID).
		Int("sales", summary.SaleCount).
		Str("gross", summary.GrossTotal.String()).
		Msg("resumen de ventas generado")
	return summary, nil
}
