// Package poller watches payment requests until they settle on-chain.
// It polls on a fixed cadence, swallows per-tick failures, and stops as soon
// as its context is cancelled.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/metrics"
)

// Config holds polling configuration.
type Config struct {
	Interval    time.Duration // Delay between status queries
	MaxAttempts int           // Maximum number of queries; 0 polls until settled
	Timeout     time.Duration // Wall-clock limit for one watch; 0 disables it
}

// DefaultConfig polls once per second with no upper bound.
var DefaultConfig = Config{
	Interval: time.Second,
}

// Poller queries a StatusService until a request is executed.
type Poller struct {
	Service fetcch.StatusService
	Config  Config
	Logger  *slog.Logger
	Metrics metrics.Recorder

	// Labels returns the metric labels for a watched request, e.g. its chain.
	Labels func(id fetcch.RequestID) map[string]string
}

// Option configures a Poller.
type Option func(*Poller)

// WithConfig replaces the polling configuration.
func WithConfig(cfg Config) Option {
	return func(p *Poller) {
		p.Config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		p.Logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(p *Poller) {
		p.Metrics = r
	}
}

// WithLabels sets the function that labels the metrics of each watch.
func WithLabels(fn func(id fetcch.RequestID) map[string]string) Option {
	return func(p *Poller) {
		p.Labels = fn
	}
}

// New creates a Poller for service with DefaultConfig.
func New(service fetcch.StatusService, opts ...Option) *Poller {
	p := &Poller{
		Service: service,
		Config:  DefaultConfig,
		Logger:  slog.Default(),
		Metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch polls the status of id until it is executed and returns the settled
// status. The first query is issued one interval after the call.
//
// A failed query is logged and retried on the next tick. Watch returns the
// context error as soon as ctx is cancelled, including when a query was in
// flight. It returns fetcch.ErrSettlementTimedOut once MaxAttempts or
// Timeout is exhausted.
func (p *Poller) Watch(ctx context.Context, id fetcch.RequestID) (*fetcch.RequestStatus, error) {
	if p.Service == nil {
		return nil, errors.New("poller: no status service configured")
	}

	interval := p.Config.Interval
	if interval <= 0 {
		interval = DefaultConfig.Interval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if p.Config.Timeout > 0 {
		timer := time.NewTimer(p.Config.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	logger := p.logger().With("request_id", int64(id))
	labels := p.labels(id)
	start := time.Now()

	p.recorder().IncCounter(metrics.EventWatchStarted, labels)
	defer p.recorder().IncCounter(metrics.EventWatchStopped, labels)

	for attempt := 1; p.Config.MaxAttempts <= 0 || attempt <= p.Config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, p.timedOut(id, attempt-1, start, labels)
		case <-ticker.C:
		}

		// select picks randomly when several cases are ready
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p.recorder().IncCounter(metrics.EventPollTick, labels)
		status, err := p.Service.GetStatus(ctx, id)

		// A response that arrives after cancellation belongs to a stale watch.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if err != nil {
			p.recorder().IncCounter(metrics.EventPollError, labels)
			logger.Warn("status query failed, retrying on next tick", "attempt", attempt, "error", err)
			continue
		}

		if status.Executed {
			p.recorder().IncCounter(metrics.EventSettled, labels)
			p.recorder().ObserveLatency(metrics.OpSettlement, time.Since(start), labels)
			logger.Info("payment request settled", "attempt", attempt, "transaction", status.TransactionHash)
			return status, nil
		}

		logger.Debug("payment request pending", "attempt", attempt)
	}

	return nil, p.timedOut(id, p.Config.MaxAttempts, start, labels)
}

func (p *Poller) timedOut(id fetcch.RequestID, attempts int, start time.Time, labels map[string]string) error {
	p.recorder().IncCounter(metrics.EventSettlementTimed, labels)
	p.logger().Warn("payment request did not settle",
		"request_id", int64(id), "attempts", attempts, "elapsed", time.Since(start))
	return fmt.Errorf("%w: request %d after %d queries", fetcch.ErrSettlementTimedOut, id, attempts)
}

func (p *Poller) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Poller) labels(id fetcch.RequestID) map[string]string {
	if p.Labels == nil {
		return nil
	}
	return p.Labels(id)
}

func (p *Poller) recorder() metrics.Recorder {
	if p.Metrics == nil {
		return metrics.NoopRecorder{}
	}
	return p.Metrics
}
