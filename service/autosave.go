package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SaveFunc persists the latest state of one document.
type SaveFunc func(ctx context.Context) error

type pendingSave struct {
	timer *time.Timer
	fn    SaveFunc
	gen   uint64
}

// Autosaver runs debounced saves keyed by document identity. Every Schedule
// call for a key restarts its quiet window, and a save that fires while
// another one for the same key is still running is dropped.
type Autosaver struct {
	delay  time.Duration
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	pending  map[string]*pendingSave
	inFlight map[string]bool
	gen      uint64
	stopped  bool
	wg       sync.WaitGroup
}

func NewAutosaver(delay time.Duration) *Autosaver {
	ctx, cancel := context.WithCancel(context.Background())
	return &Autosaver{
		delay:    delay,
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]*pendingSave),
		inFlight: make(map[string]bool),
	}
}

// Schedule arms (or re-arms) the save for key. Only the fn given by the
// last call within the quiet window runs.
func (a *Autosaver) Schedule(key string, fn SaveFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if p, ok := a.pending[key]; ok {
		p.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.pending[key] = &pendingSave{
		fn:    fn,
		gen:   gen,
		timer: time.AfterFunc(a.delay, func() { a.fire(key, gen) }),
	}
}

func (a *Autosaver) fire(key string, gen uint64) {
	a.mu.Lock()
	p, ok := a.pending[key]
	if a.stopped || !ok || p.gen != gen {
		a.mu.Unlock()
		return
	}
	delete(a.pending, key)
	if a.inFlight[key] {
		a.mu.Unlock()
		slog.Debug("autosave dropped, save already in flight", "key", key)
		return
	}
	a.inFlight[key] = true
	a.wg.Add(1)
	a.mu.Unlock()

	defer a.wg.Done()
	defer a.release(key)
	if err := p.fn(a.ctx); err != nil {
		slog.Warn("autosave failed", "key", key, "error", err)
	}
}

func (a *Autosaver) release(key string) {
	a.mu.Lock()
	delete(a.inFlight, key)
	a.mu.Unlock()
}

// SaveNow runs fn immediately in place of any pending save for key. It
// returns ErrSaveInProgress without running fn if a save for key is in flight.
func (a *Autosaver) SaveNow(ctx context.Context, key string, fn SaveFunc) error {
	a.mu.Lock()
	if a.inFlight[key] {
		a.mu.Unlock()
		return ErrSaveInProgress
	}
	a.cancelLocked(key)
	a.inFlight[key] = true
	a.mu.Unlock()

	defer a.release(key)
	return fn(ctx)
}

// Cancel drops the pending save for key, if any.
func (a *Autosaver) Cancel(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked(key)
}

func (a *Autosaver) cancelLocked(key string) {
	if p, ok := a.pending[key]; ok {
		p.timer.Stop()
		delete(a.pending, key)
	}
}

func (a *Autosaver) Pending(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[key]
	return ok
}

func (a *Autosaver) InFlight(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight[key]
}

// Flush runs every pending save now, one after another.
func (a *Autosaver) Flush(ctx context.Context) {
	a.mu.Lock()
	keys := make([]string, 0, len(a.pending))
	fns := make([]SaveFunc, 0, len(a.pending))
	for key, p := range a.pending {
		p.timer.Stop()
		keys = append(keys, key)
		fns = append(fns, p.fn)
	}
	a.pending = make(map[string]*pendingSave)
	a.mu.Unlock()

	for i, key := range keys {
		if err := a.SaveNow(ctx, key, fns[i]); err != nil {
			slog.Warn("flushing autosave failed", "key", key, "error", err)
		}
	}
}

// Stop cancels pending saves, waits for running ones and rejects new
// schedules.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	a.stopped = true
	for key, p := range a.pending {
		p.timer.Stop()
		delete(a.pending, key)
	}
	a.mu.Unlock()

	a.wg.Wait()
	a.cancel()
}
