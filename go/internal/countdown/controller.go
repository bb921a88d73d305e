package countdown

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrCountdownInProgress = errors.New("countdown already running for category")
	ErrInvalidDelay        = errors.New("countdown delay must be a non-negative number of seconds")
	ErrDelayTooLong        = errors.New("countdown delay exceeds the maximum")
)

// MaxDelay bounds a single countdown; a ceremony never runs longer
const MaxDelay = 24 * time.Hour

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// FireFunc is called once per countdown, from the timer goroutine, when the
// delay has elapsed.
type FireFunc func(categoryName string)

// Controller schedules one-shot category locks. A category stays pending from
// Start until the owner acknowledges the lock with Complete, so a second
// countdown cannot be scheduled while the first one's lock is still in flight.
type Controller struct {
	clock Clock
	fire  FireFunc

	mu      sync.Mutex
	pending map[string]time.Time // category name -> deadline

	wg sync.WaitGroup
}

// NewController creates a countdown controller
func NewController(clock Clock, fire FireFunc) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		clock:   clock,
		fire:    fire,
		pending: make(map[string]time.Time),
	}
}

// DelayFromSeconds converts a client supplied delay into a duration
func DelayFromSeconds(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, fmt.Errorf("%v: %w", seconds, ErrInvalidDelay)
	}
	if seconds > MaxDelay.Seconds() {
		return 0, fmt.Errorf("%v seconds: %w", seconds, ErrDelayTooLong)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Start schedules the lock of categoryName after delay and returns the
// deadline. Cancelling ctx stops the timer without firing; there is no other
// way to abort a countdown.
func (c *Controller) Start(ctx context.Context, categoryName string, delay time.Duration) (time.Time, error) {
	if delay < 0 {
		return time.Time{}, ErrInvalidDelay
	}
	if delay > MaxDelay {
		return time.Time{}, ErrDelayTooLong
	}

	c.mu.Lock()
	if existing, ok := c.pending[categoryName]; ok {
		c.mu.Unlock()
		log.Debug().
			Str("category", categoryName).
			Time("deadline", existing).
			Msg("skipping countdown - already scheduled")
		return existing, ErrCountdownInProgress
	}

	deadline := c.clock.Now().Add(delay)
	timer := c.clock.NewTimer(delay)
	c.pending[categoryName] = deadline
	c.mu.Unlock()

	c.wg.Add(1)
	go func(name string, t clockwork.Timer) {
		defer c.wg.Done()
		select {
		case <-t.Chan():
			log.Info().Str("category", name).Msg("countdown elapsed")
			c.fire(name)
		case <-ctx.Done():
			stopAndDrainTimer(t)
			c.Complete(name)
			log.Debug().Str("category", name).Msg("countdown cancelled due to context cancellation")
		}
	}(categoryName, timer)

	log.Info().
		Str("category", categoryName).
		Time("deadline", deadline).
		Dur("delay", delay).
		Msg("scheduled category lock")

	return deadline, nil
}

// Complete clears the pending entry for a category once its lock has been applied
func (c *Controller) Complete(categoryName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, categoryName)
}

// Pending reports whether a countdown is scheduled or awaiting completion for
// the category, and its deadline.
func (c *Controller) Pending(categoryName string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline, ok := c.pending[categoryName]
	return deadline, ok
}

// Wait blocks until every timer goroutine has returned
func (c *Controller) Wait() {
	c.wg.Wait()
}

// stopAndDrainTimer safely stops a timer and drains its channel
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
