// Package timer implements the exam countdown clock.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTickInterval is the length of one countdown tick.
const DefaultTickInterval = time.Second

// Timer counts down one tick at a time and invokes its expire callback once
// when the remaining time reaches zero. Every Start begins a new generation
// with its own cancellation token; Pause, Reset and Stop cancel it, and ticks
// belonging to a cancelled generation are dropped.
type Timer struct {
	mu        sync.Mutex
	initial   int
	remaining int
	running   bool
	gen       uint64
	cancel    context.CancelFunc

	interval time.Duration
	onTick   func(remaining int)
	onExpire func()
	log      zerolog.Logger
}

// Option configures a Timer.
type Option func(*Timer)

// WithTickInterval overrides the wall-clock length of a tick.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithOnTick registers a callback invoked after every tick with the new
// remaining time, including the final tick that reaches zero.
func WithOnTick(fn func(remaining int)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// WithOnExpire registers the one-shot expiration callback.
func WithOnExpire(fn func()) Option {
	return func(t *Timer) { t.onExpire = fn }
}

// WithLogger attaches a logger used to report a panicking callback.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Timer) { t.log = log.With().Str("component", "timer").Logger() }
}

// New creates a stopped timer with initialSeconds on the clock.
func New(initialSeconds int, opts ...Option) *Timer {
	if initialSeconds < 0 {
		initialSeconds = 0
	}
	t := &Timer{
		initial:   initialSeconds,
		remaining: initialSeconds,
		interval:  DefaultTickInterval,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins ticking from the current remaining time. It is a no-op if the
// timer is already running or has nothing left on the clock.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running || t.remaining <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.gen++
	t.running = true
	t.cancel = cancel

	go t.run(ctx, t.gen, t.interval)
}

// Pause halts ticking without touching the remaining time.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Stop is an alias of Pause used when the owner is done with the timer.
func (t *Timer) Stop() {
	t.Pause()
}

// Reset stops the timer and restores the initial duration.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.remaining = t.initial
}

// ResetTo stops the timer and sets the remaining time to seconds.
func (t *Timer) ResetTo(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	if seconds < 0 {
		seconds = 0
	}
	t.remaining = seconds
}

// Remaining returns the seconds left on the clock.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether the timer is ticking.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Formatted returns the remaining time as H:MM:SS or M:SS.
func (t *Timer) Formatted() string {
	return Format(t.Remaining())
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.running = false
}

func (t *Timer) run(ctx context.Context, gen uint64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.tick(gen) {
				return
			}
		}
	}
}

// tick applies one decrement for generation gen. It returns false once the
// generation is finished.
func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return false
	}

	t.remaining--
	if t.remaining < 0 {
		t.remaining = 0
	}
	remaining := t.remaining
	expired := remaining == 0
	if expired {
		t.stopLocked()
	}
	onTick, onExpire := t.onTick, t.onExpire
	t.mu.Unlock()

	if onTick != nil {
		t.safeCall("tick", func() { onTick(remaining) })
	}
	if expired {
		if onExpire != nil {
			t.safeCall("expire", onExpire)
		}
		return false
	}
	return true
}

func (t *Timer) safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().
				Str("callback", name).
				Interface("panic", r).
				Msg("Timer callback panicked")
		}
	}()
	fn()
}

// Format renders seconds as H:MM:SS when at least an hour remains, else M:SS.
// Minutes and seconds are always zero-padded to two digits.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatMinutes renders seconds as M:SS with unbounded minutes, the layout
// used for time spent in result history.
func FormatMinutes(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
