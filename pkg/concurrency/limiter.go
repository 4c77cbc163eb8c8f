package concurrency

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Limiter acota cuántas operaciones corren a la vez. Se usa para que el
// fan-out de consultas del catálogo no agote el pool de conexiones: como
// máximo max callers adentro, el resto espera en orden FIFO.
type Limiter struct {
	sem *semaphore.Weighted
	max int64
}

// NewLimiter crea un limitador que admite max ejecuciones simultáneas.
func NewLimiter(max int64) *Limiter {
	if max <= 0 {
		max = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(max), max: max}
}

// Run ejecuta fn cuando hay cupo. Los que esperan no tienen timeout propio:
// si el caller quiere uno, lo pone en el contexto.
func (l *Limiter) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	defer l.sem.Release(1)
	return fn(ctx)
}

// Max devuelve el cupo configurado.
func (l *Limiter) Max() int64 { return l.max }
