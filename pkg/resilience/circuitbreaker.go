// Package resilience keeps a failing dependency from slowing every request.
package resilience

import (
	"errors"
	"sync"
	"time"

	"guestbook/backend/pkg/logger"
)

// ErrOpen is returned by Do while the breaker is open
var ErrOpen = errors.New("circuit open")

// State of a breaker
type State string

const (
	// StateClosed lets every call through
	StateClosed State = "closed"
	// StateOpen short-circuits calls until the open timeout expires
	StateOpen State = "open"
	// StateHalfOpen lets a limited number of trial calls through
	StateHalfOpen State = "half-open"
)

// Settings configures a Breaker
type Settings struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	OpenTimeout      time.Duration
	// OnStateChange is called with the lock held; it must not call back into the breaker
	OnStateChange func(name string, from, to State)
}

// DefaultSettings returns settings suited to an optional cache backend
func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern
type Breaker struct {
	settings Settings
	log      *logger.Logger
	now      func() time.Time

	mu          sync.Mutex
	state       State
	failures    uint
	successes   uint
	inFlight    uint
	nextAttempt time.Time
}

// NewBreaker creates a closed breaker
func NewBreaker(settings Settings, log *logger.Logger) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 1
	}
	if settings.SuccessThreshold == 0 {
		settings.SuccessThreshold = 1
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Breaker{
		settings: settings,
		log:      log,
		now:      time.Now,
		state:    StateClosed,
	}
}

// Do runs fn unless the breaker is open. Errors from fn are returned unchanged.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}

	err := fn()
	b.record(err)
	return err
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Before(b.nextAttempt) {
			return false
		}
		b.transition(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if b.successes+b.inFlight >= b.settings.SuccessThreshold {
			return false
		}
		b.inFlight++
		return true
	default:
		return true
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen && b.inFlight > 0 {
		b.inFlight--
	}

	if err != nil {
		switch b.state {
		case StateClosed:
			b.failures++
			if b.failures >= b.settings.FailureThreshold {
				b.transition(StateOpen)
			}
		case StateHalfOpen:
			b.transition(StateOpen)
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.settings.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

// transition must be called with mu held
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	b.inFlight = 0

	if to == StateOpen {
		b.nextAttempt = b.now().Add(b.settings.OpenTimeout)
	}

	b.log.Info("Circuit breaker state changed",
		"name", b.settings.Name,
		"from", string(from),
		"to", string(to),
	)

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.settings.Name, from, to)
	}
}
