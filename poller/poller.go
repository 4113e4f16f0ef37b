// Package poller runs an executor immediately and then on every tick until
// its context is cancelled.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

const DefaultInterval = time.Second

var ErrNilExecutor = errors.New("poller: executor is nil")

type Executor interface {
	Execute(ctx context.Context) error
}

type ExecutorFunc func(ctx context.Context) error

func (f ExecutorFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

type Poller struct {
	name        string
	executor    Executor
	interval    time.Duration
	execTimeout time.Duration
	stopOnError bool
	logger      zerolog.Logger
}

type Option func(*Poller)

func New(executor Executor, opts ...Option) *Poller {
	p := &Poller{
		name:        "poller",
		executor:    executor,
		interval:    DefaultInterval,
		execTimeout: 0,
		stopOnError: false,
		logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

func WithExecutionTimeout(timeout time.Duration) Option {
	return func(p *Poller) {
		if timeout > 0 {
			p.execTimeout = timeout
		}
	}
}

func WithName(name string) Option {
	return func(p *Poller) {
		if name != "" {
			p.name = name
		}
	}
}

// WithStopOnError makes Run return the first executor error. By default
// failures are logged and polling continues.
func WithStopOnError() Option {
	return func(p *Poller) {
		p.stopOnError = true
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

func (p *Poller) Name() string {
	return p.name
}

// Run blocks until ctx is done, returning nil, or until an execution fails
// with WithStopOnError set. Ticks that arrive while an execution is still
// running are dropped.
func (p *Poller) Run(ctx context.Context) error {
	if p.executor == nil {
		return ErrNilExecutor
	}

	p.logger.Debug().
		Str("poller", p.name).
		Dur("interval", p.interval).
		Dur("exec_timeout", p.execTimeout).
		Msg("The poller is starting")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.execute(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			p.logger.Debug().Str("poller", p.name).Msg("The poller has stopped")

			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) execute(ctx context.Context) error {
	execCtx := ctx

	if p.execTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, p.execTimeout)
		defer cancel()
	}

	err := p.executor.Execute(execCtx)
	if err == nil || ctx.Err() != nil {
		return nil
	}

	if p.stopOnError {
		return err
	}

	p.logger.Error().
		Err(err).
		Str("poller", p.name).
		Msg("The executor has failed")

	return nil
}
