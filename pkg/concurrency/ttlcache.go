package concurrency

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// TTLCache memoiza resultados de consultas caras por una ventana acotada.
// Las entradas solo se invalidan por expiración: quien lee por esta vía
// acepta ver datos levemente viejos a cambio de throughput. Los callers
// concurrentes de una misma clave ausente comparten un único cómputo
// (single-flight) en vez de duplicarlo.
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	group      singleflight.Group
	defaultTTL time.Duration

	stopOnce sync.Once
	stop     chan struct{}

	hits   atomic.Int64
	misses atomic.Int64
}

// NewTTLCache crea la caché con su TTL por defecto y arranca el janitor que
// barre entradas vencidas cada cleanupInterval.
func NewTTLCache(defaultTTL, cleanupInterval time.Duration) *TTLCache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &TTLCache{
		entries:    make(map[string]cacheEntry),
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}
	go c.janitor(cleanupInterval)
	return c
}

func (c *TTLCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// GetOrCompute devuelve el valor cacheado para key o ejecuta compute y lo
// guarda por ttl (0 = TTL por defecto). Un error de compute no se cachea.
func (c *TTLCache) GetOrCompute(key string, ttl time.Duration, compute func() (any, error)) (any, error) {
	if value, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		// Releer: otro vuelo pudo haber poblado la entrada justo antes.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		c.misses.Add(1)
		value, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(key, value, ttl)
		return value, nil
	})
	return value, err
}

func (c *TTLCache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *TTLCache) set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Len devuelve cuántas entradas hay, vencidas incluidas hasta que pase el janitor.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheStats contadores de aciertos y fallos.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Stats devuelve los contadores actuales.
func (c *TTLCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: c.Len()}
}

// Close detiene el janitor.
func (c *TTLCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
