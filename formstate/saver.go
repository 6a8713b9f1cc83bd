package formstate

import "time"

// DefaultSaveInterval is how often the background saver re-persists the
// auto-save snapshot on top of per-update persistence.
const DefaultSaveInterval = 30 * time.Second

// Saver periodically flushes a store's auto-save snapshot. It must be
// stopped on page teardown or the goroutine leaks.
type Saver struct {
	ticker *time.Ticker
	done   chan struct{}
}

// StartSaver begins flushing store every interval.
func StartSaver(store *Store, interval time.Duration) *Saver {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	s := &Saver{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-s.ticker.C:
				store.Flush()
			case <-s.done:
				return
			}
		}
	}()
	return s
}

// Stop cancels the periodic flush. Safe to call once.
func (s *Saver) Stop() {
	s.ticker.Stop()
	close(s.done)
}
