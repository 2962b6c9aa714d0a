package recovery

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/agentkit/agentkit/observe"
)

// Strategy defines how delays grow between retry attempts.
type Strategy int

const (
	// StrategyExponential multiplies the delay by Multiplier each attempt.
	StrategyExponential Strategy = iota
	// StrategyFixed uses the same delay for every retry.
	StrategyFixed
	// StrategyLinear grows the delay linearly with the attempt number.
	StrategyLinear
	// StrategyFibonacci grows the delay along the Fibonacci sequence.
	StrategyFibonacci
	// StrategyJitter is exponential growth plus a uniform 0-10% spread.
	StrategyJitter
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyExponential:
		return "exponential"
	case StrategyFixed:
		return "fixed"
	case StrategyLinear:
		return "linear"
	case StrategyFibonacci:
		return "fibonacci"
	case StrategyJitter:
		return "jitter"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name as used in configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "exponential", "":
		return StrategyExponential, nil
	case "fixed":
		return StrategyFixed, nil
	case "linear":
		return StrategyLinear, nil
	case "fibonacci":
		return StrategyFibonacci, nil
	case "jitter":
		return StrategyJitter, nil
	default:
		return StrategyExponential, fmt.Errorf("recovery: unknown retry strategy %q", s)
	}
}

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// Strategy selects how the delay grows between attempts.
	// Default: StrategyExponential
	Strategy Strategy

	// BaseDelay is the delay before the first retry.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries, applied after jitter.
	// Default: 60s
	MaxDelay time.Duration

	// Multiplier is the growth factor for exponential strategies.
	// Default: 2.0
	Multiplier float64

	// NoJitter disables the symmetric +/-10% spread that is otherwise
	// applied on top of every strategy except StrategyJitter.
	NoJitter bool

	// RetryIf reports whether an error should trigger a retry.
	// Default: all non-nil errors trigger a retry.
	RetryIf func(err error) bool

	// StopIf reports whether an error must be returned immediately.
	// StopIf wins over RetryIf.
	StopIf func(err error) bool

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry executes operations with configurable backoff.
type Retry struct {
	config RetryConfig
	log    observe.Logger
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig, opts ...Option) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	in := newInstrumentation(opts)
	return &Retry{config: config, log: in.log}
}

// Execute runs op, retrying failures according to the configured strategy.
// The last attempt's error is returned after exhaustion.
func (r *Retry) Execute(ctx context.Context, op Operation) (any, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				r.log.Info(ctx, "operation succeeded after retry",
					observe.F("attempt", attempt))
			}
			return result, nil
		}

		lastErr = err

		if r.config.StopIf != nil && r.config.StopIf(err) {
			return nil, err
		}
		if !r.config.RetryIf(err) {
			return nil, err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}
		r.log.Warn(ctx, "attempt failed, backing off",
			observe.F("attempt", attempt),
			observe.F("delay", delay),
			observe.F("error", err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// delay computes the sleep before the retry following the given attempt
// (1-based).
func (r *Retry) delay(attempt int) time.Duration {
	base := float64(r.config.BaseDelay)
	var delay float64

	switch r.config.Strategy {
	case StrategyFixed:
		delay = base
	case StrategyLinear:
		delay = base * float64(attempt)
	case StrategyFibonacci:
		delay = base * float64(fibonacci(attempt))
	case StrategyJitter:
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		grown := base * math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = grown + rand.Float64()*grown*0.1
	default:
		delay = base * math.Pow(r.config.Multiplier, float64(attempt-1))
	}

	// Symmetric jitter on top of every strategy but StrategyJitter, which
	// carries its own spread.
	if !r.config.NoJitter && r.config.Strategy != StrategyJitter {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += (rand.Float64()*2 - 1) * delay * 0.1
	}

	if capped := float64(r.config.MaxDelay); delay > capped {
		delay = capped
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// fibonacci returns the nth Fibonacci number with fibonacci(1) == 1 and
// fibonacci(2) == 1.
func fibonacci(n int) int {
	if n <= 2 {
		return 1
	}
	a, b := 1, 1
	for i := 3; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}
