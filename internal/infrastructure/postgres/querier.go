// Package postgres implementa los adaptadores de persistencia del motor
// sobre PostgreSQL con pgx. Los repositorios aceptan un Querier, de modo que
// la misma implementación sirve atada al pool (lecturas sueltas) o a una
// transacción (escrituras del ledger y transiciones de notas).
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier es el subconjunto común de pgxpool.Pool y pgx.Tx que usan los
// repositorios.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
