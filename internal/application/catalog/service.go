// Package catalog es la capa de lectura del catálogo: búsqueda paginada de
// productos con stock por sucursal. Optimizada para el mostrador: caché TTL
// con single-flight para los términos calientes y un limitador que acota el
// fan-out de consultas para no agotar el pool de conexiones.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
	"github.com/jhoicas/ferrepos-core/pkg/concurrency"
	"github.com/jhoicas/ferrepos-core/pkg/logger"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Service resuelve consultas de catálogo.
type Service struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	cache       *concurrency.TTLCache
	limiter     *concurrency.Limiter
	cacheTTL    time.Duration
	log         *logger.Logger
}

// NewService construye la capa de consulta del catálogo.
func NewService(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	cache *concurrency.TTLCache,
	limiter *concurrency.Limiter,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		productRepo: productRepo,
		stockRepo:   stockRepo,
		cache:       cache,
		limiter:     limiter,
		cacheTTL:    cacheTTL,
		log:         log.Component("catalog"),
	}
}

// SearchInput entrada tipada de una búsqueda de catálogo.
type SearchInput struct {
	Query           string
	CategoryID      string
	Brand           string
	LocationID      string // si viene, cada ítem trae su stock en esa sucursal
	PriceMin        *decimal.Decimal
	PriceMax        *decimal.Decimal
	IncludeInactive bool
	OrderBy         string
	Descending      bool
	Page            int
	PerPage         int
}

// Item es un producto del resultado con su foto de stock, si se pidió sucursal.
type Item struct {
	Product   *entity.Product
	OnHand    decimal.Decimal
	Reserved  decimal.Decimal
	Available decimal.Decimal
}

// SearchResult página de resultados con el total sin paginar.
type SearchResult struct {
	Items   []*Item
	Total   int64
	Page    int
	PerPage int
}

// Search ejecuta la búsqueda. El término se normaliza antes de consultar y de
// formar la clave de caché; productos y conteo total corren en paralelo bajo
// el limitador, y el stock se junta en memoria al final. El resultado puede
// venir de la caché: datos de hasta cacheTTL de antigüedad.
func (s *Service) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.PerPage <= 0 {
		input.PerPage = defaultPerPage
	}
	if input.PerPage > maxPerPage {
		input.PerPage = maxPerPage
	}
	if input.PriceMin != nil && input.PriceMax != nil && input.PriceMin.GreaterThan(*input.PriceMax) {
		return nil, fmt.Errorf("%w: precio mínimo mayor que el máximo", domain.ErrInvalidInput)
	}

	normalized := Normalize(input.Query)
	key := cacheKey(input, normalized)

	value, err := s.cache.GetOrCompute(key, s.cacheTTL, func() (any, error) {
		return s.search(ctx, input, normalized)
	})
	if err != nil {
		return nil, err
	}
	return value.(*SearchResult), nil
}

func (s *Service) search(ctx context.Context, input SearchInput, normalized string) (*SearchResult, error) {
	filter := repository.ProductFilter{
		Query:      normalized,
		CategoryID: input.CategoryID,
		Brand:      input.Brand,
		PriceMin:   input.PriceMin,
		PriceMax:   input.PriceMax,
		OnlyActive: !input.IncludeInactive,
		OrderBy:    input.OrderBy,
		Descending: input.Descending,
		Limit:      input.PerPage,
		Offset:     (input.Page - 1) * input.PerPage,
	}

	var (
		products []*entity.Product
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.limiter.Run(gctx, func(context.Context) error {
			var err error
			products, err = s.productRepo.Search(filter)
			return err
		})
	})
	g.Go(func() error {
		return s.limiter.Run(gctx, func(context.Context) error {
			var err error
			total, err = s.productRepo.Count(filter)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stockByProduct := map[string]*entity.Stock{}
	if input.LocationID != "" && len(products) > 0 {
		ids := make([]string, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		err := s.limiter.Run(ctx, func(context.Context) error {
			rows, err := s.stockRepo.ListByLocation(input.LocationID, ids)
			if err != nil {
				return err
			}
			for _, row := range rows {
				stockByProduct[row.ProductID] = row
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	items := make([]*Item, 0, len(products))
	for _, p := range products {
		item := &Item{Product: p}
		if stock, ok := stockByProduct[p.ID]; ok {
			item.OnHand = stock.QuantityOnHand
			item.Reserved = stock.QuantityReserved
			item.Available = stock.Available()
		}
		items = append(items, item)
	}

	s.log.Debug().
		Str("query", normalized).
		Int("items", len(items)).
		Int64("total", total).
		Msg("búsqueda de catálogo resuelta")
	return &SearchResult{Items: items, Total: total, Page: input.Page, PerPage: input.PerPage}, nil
}

// GetProduct devuelve un producto por id, con stock si se indica sucursal.
// Lectura directa, sin caché: la ficha de producto siempre muestra fresco.
func (s *Service) GetProduct(ctx context.Context, productID, locationID string) (*Item, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: falta el id del producto", domain.ErrInvalidInput)
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	item := &Item{Product: product}
	if locationID != "" {
		stock, err := s.stockRepo.Get(productID, locationID)
		if err != nil {
			return nil, err
		}
		item.OnHand = stock.QuantityOnHand
		item.Reserved = stock.QuantityReserved
		item.Available = stock.Available()
	}
	return item, nil
}

// CacheStats expone los contadores de la caché del catálogo.
func (s *Service) CacheStats() concurrency.CacheStats {
	return s.cache.Stats()
}

func cacheKey(input SearchInput, normalized string) string {
	min, max := "", ""
	if input.PriceMin != nil {
		min = input.PriceMin.String()
	}
	if input.PriceMax != nil {
		max = input.PriceMax.String()
	}
	return fmt.Sprintf("search|%s|%s|%s|%s|%s|%s|%t|%s|%t|%d|%d",
		normalized, input.CategoryID, input.Brand, input.LocationID,
		min, max, input.IncludeInactive, input.OrderBy, input.Descending,
		input.Page, input.PerPage)
}
