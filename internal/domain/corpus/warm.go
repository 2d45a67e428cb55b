package corpus

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Warm loads corpora ahead of the first request, in parallel on a bounded
// worker pool. With no ids it warms every corpus the store lists. Warming
// is not an access: counters are left untouched.
//
// Per-corpus failures don't stop the others; they come back joined.
func (c *Cache) Warm(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		listed, err := c.List()
		if err != nil {
			return err
		}
		ids = listed
	}
	if len(ids) == 0 {
		return nil
	}

	size := min(len(ids), max(1, runtime.NumCPU()))
	pool, err := ants.NewPool(size)
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			record(err)
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if _, _, err := c.refresh(id); err != nil {
				record(err)
			}
		}); err != nil {
			wg.Done()
			record(err)
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}
