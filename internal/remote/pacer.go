package remote

import (
	"context"
	"sync"
	"time"
)

// pacer гарантирует паузу не меньше delay между последовательными запросами.
// Мьютекс удерживается во время ожидания, поэтому конкурентные вызовы
// выстраиваются в очередь, а не пробиваются одновременно.
type pacer struct {
	last  time.Time
	now   func() time.Time
	mu    sync.Mutex
	delay time.Duration
}

func newPacer(delay time.Duration) *pacer {
	return &pacer{delay: delay, now: time.Now}
}

// Wait blocks until the next request may be sent and reserves that slot.
func (p *pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := p.delay - p.now().Sub(p.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.last = p.now()
	return nil
}
