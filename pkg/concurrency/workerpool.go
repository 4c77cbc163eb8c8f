// Package concurrency agrupa las primitivas de concurrencia del motor:
// pool de workers para tareas CPU-intensivas, limitador de concurrencia
// para fan-out de consultas y caché con TTL para lecturas calientes.
package concurrency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Errores de las primitivas de concurrencia.
var (
	ErrTimeout    = errors.New("timeout de ejecución concurrente")
	ErrPoolClosed = errors.New("el worker pool está cerrado")
)

// Task es una unidad de trabajo tipada para el pool. Recibe un contexto con
// el deadline del caller; debe respetarlo en cómputos largos.
type Task func(ctx context.Context) (any, error)

type jobResult struct {
	value any
	err   error
}

type job struct {
	ctx    context.Context
	task   Task
	result chan jobResult
}

// WorkerPool ejecuta tareas en un número fijo de goroutines de fondo.
// Aísla la generación de reportes del camino interactivo: si todos los
// workers están ocupados las tareas esperan en cola hasta su timeout.
type WorkerPool struct {
	size  int
	tasks chan *job

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	timeouts  atomic.Int64
	panics    atomic.Int64
}

// NewWorkerPool crea y arranca un pool de size workers con una cola de
// queueDepth tareas pendientes.
func NewWorkerPool(size, queueDepth int) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	p := &WorkerPool{
		size:   size,
		tasks:  make(chan *job, queueDepth),
		closed: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// worker consume tareas hasta que el pool cierra. Un pánico en la tarea se
// convierte en error para el caller y el worker sigue atendiendo; el
// reemplazo del worker caído es transparente.
func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.tasks:
			p.run(j)
		case <-p.closed:
			// Drenar lo que quedó encolado antes de salir.
			for {
				select {
				case j := <-p.tasks:
					p.run(j)
				default:
					return
				}
			}
		}
	}
}

func (p *WorkerPool) run(j *job) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.failed.Add(1)
			j.result <- jobResult{err: fmt.Errorf("la tarea del worker falló: %v", r)}
		}
	}()

	// Si el caller ya desistió no vale la pena computar.
	if err := j.ctx.Err(); err != nil {
		p.timeouts.Add(1)
		j.result <- jobResult{err: fmt.Errorf("%w: %v", ErrTimeout, err)}
		return
	}

	value, err := j.task(j.ctx)
	if err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}
	j.result <- jobResult{value: value, err: err}
}

// Submit encola la tarea y espera su resultado hasta timeout. Si la tarea no
// alcanza a iniciarse o completarse dentro del plazo devuelve ErrTimeout y el
// resultado se descarta cuando llegue. No hay reintento automático.
func (p *WorkerPool) Submit(ctx context.Context, task Task, timeout time.Duration) (any, error) {
	if task == nil {
		return nil, errors.New("task nil")
	}
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p.submitted.Add(1)
	j := &job{
		ctx:    taskCtx,
		task:   task,
		result: make(chan jobResult, 1), // buffered: el worker nunca queda colgado entregando
	}

	select {
	case p.tasks <- j:
	case <-taskCtx.Done():
		p.timeouts.Add(1)
		return nil, fmt.Errorf("%w: la tarea no inició en %s", ErrTimeout, timeout)
	case <-p.closed:
		return nil, ErrPoolClosed
	}

	select {
	case res := <-j.result:
		return res.value, res.err
	case <-taskCtx.Done():
		p.timeouts.Add(1)
		return nil, fmt.Errorf("%w: la tarea no terminó en %s", ErrTimeout, timeout)
	}
}

// Close deja de aceptar tareas y espera a que los workers drenen la cola.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
}

// PoolStats es una foto de los contadores del pool.
type PoolStats struct {
	Size      int
	Queued    int
	Submitted int64
	Completed int64
	Failed    int64
	Timeouts  int64
	Panics    int64
}

// Stats devuelve el estado actual del pool.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Size:      p.size,
		Queued:    len(p.tasks),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Timeouts:  p.timeouts.Load(),
		Panics:    p.panics.Load(),
	}
}
