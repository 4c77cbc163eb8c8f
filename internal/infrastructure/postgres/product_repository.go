package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación de ProductRepository sobre PostgreSQL.
// Las búsquedas de texto usan la extensión unaccent: el término llega ya
// normalizado (minúsculas, sin tildes) desde la capa de catálogo y aquí se
// normaliza la columna para que calcen.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador del catálogo.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, codigo_interno, codigo_barra, descripcion, marca, categoria_id,
	precio_unitario, costo_promedio, unidad_medida, stock_minimo, stock_maximo, activo,
	fecha_creacion, fecha_modificacion`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.InternalCode, &p.Barcode, &p.Description, &p.Brand,
		&p.CategoryID, &p.Price, &p.Cost, &p.UnitMeasure, &p.MinStock, &p.MaxStock,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID obtiene un producto por id; nil si no existe.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM productos WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// sortColumns mapea los criterios de orden admitidos a columnas reales.
// Cualquier otro valor cae en descripcion: nunca se interpola texto del caller.
var sortColumns = map[string]string{
	"descripcion":    "descripcion",
	"precio":         "precio_unitario",
	"codigo_interno": "codigo_interno",
}

func buildProductWhere(filter repository.ProductFilter) (string, []any) {
	conditions := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		n := arg("%" + filter.Query + "%")
		conditions = append(conditions, fmt.Sprintf(
			`(unaccent(lower(descripcion)) LIKE %[1]s
			  OR unaccent(lower(marca)) LIKE %[1]s
			  OR lower(codigo_interno) LIKE %[1]s
			  OR codigo_barra LIKE %[1]s)`, n))
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, "categoria_id = "+arg(filter.CategoryID))
	}
	if filter.Brand != "" {
		conditions = append(conditions, "unaccent(lower(marca)) = "+arg(strings.ToLower(filter.Brand)))
	}
	if filter.PriceMin != nil {
		conditions = append(conditions, "precio_unitario >= "+arg(*filter.PriceMin))
	}
	if filter.PriceMax != nil {
		conditions = append(conditions, "precio_unitario <= "+arg(*filter.PriceMax))
	}
	if filter.OnlyActive {
		conditions = append(conditions, "activo = true")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Search ejecuta la búsqueda paginada del catálogo.
func (r *ProductRepo) Search(filter repository.ProductFilter) ([]*entity.Product, error) {
	where, args := buildProductWhere(filter)

	orderBy, ok := sortColumns[filter.OrderBy]
	if !ok {
		orderBy = "descripcion"
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM productos%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		productColumns, where, orderBy, direction, len(args)-1, len(args))

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var result []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Count devuelve el total de productos que calzan con el filtro, sin paginar.
func (r *ProductRepo) Count(filter repository.ProductFilter) (int64, error) {
	where, args := buildProductWhere(filter)
	query := `SELECT COUNT(*) FROM productos` + where

	var total int64
	if err := r.q.QueryRow(context.Background(), query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// UpdateCost escribe el costo promedio ponderado del producto en el catálogo.
func (r *ProductRepo) UpdateCost(id string, cost decimal.Decimal) error {
	query := `
		UPDATE productos
		SET costo_promedio = $1, fecha_modificacion = now()
		WHERE id = $2`
	_, err := r.q.Exec(context.Background(), query, cost, id)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	return nil
}
