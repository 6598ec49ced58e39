// Package poller drives asynchronous export generation to completion: an
// optional create trigger followed by a bounded polling loop against the
// download endpoint.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tshea68/reliable-pull/pkg/core"
	"go.uber.org/zap"
)

// DefaultSleepFloor is the minimum sleep between poll attempts, regardless of
// the configured interval. The endpoint is never hit more than once a minute.
const DefaultSleepFloor = time.Minute

// DefaultRollbackCutoffHour bounds the previous-day heuristic: before this
// local hour, a fresh export for today may not exist yet, so yesterday's date
// is tried once.
const DefaultRollbackCutoffHour = 6

// Config configures a Poller. Zero values are defaulted by Validate.
type Config struct {
	Logger *zap.Logger
	Clock  clockwork.Clock

	// SleepFloor is the minimum sleep between attempts.
	SleepFloor time.Duration

	// RollbackCutoffHour is the local hour before which the one-time
	// previous-day rollback applies.
	RollbackCutoffHour int
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.SleepFloor <= 0 {
		c.SleepFloor = DefaultSleepFloor
	}
	if c.RollbackCutoffHour == 0 {
		c.RollbackCutoffHour = DefaultRollbackCutoffHour
	}
	return nil
}

// Options describes a single run of the poll loop.
type Options struct {
	// CreateFirst triggers server-side generation before polling. Without it
	// the run assumes a prior run generated the file and does not retry.
	CreateFirst bool

	// Date is the target date in core.DateLayout. Empty means today
	// (system-local clock), with the previous-day rollback allowed.
	Date string

	// PollInterval is the requested sleep between attempts; the configured
	// floor still applies.
	PollInterval time.Duration

	// Timeout bounds the whole loop from its start.
	Timeout time.Duration

	Submit core.SubmitFunc
	Poll   core.PollFunc

	// OnAttempt, if set, is called before each poll attempt. Used by the CLI
	// to update progress output.
	OnAttempt func(attempt int, date string)
}

// Request is the mutable loop state for one run. It is created once, mutated
// only inside Run, and returned to the caller for the run-metadata record.
type Request struct {
	Date             string
	ExplicitDate     bool
	TriedPreviousDay bool
	Attempts         int
	StartedAt        time.Time
	Deadline         time.Time
}

// Poller runs the generation/poll state machine. Timestamps come from the
// injected clock; the target-date and rollback decisions use its local time.
type Poller struct {
	log        *zap.Logger
	clock      clockwork.Clock
	sleepFloor time.Duration
	cutoffHour int
}

func New(cfg Config) (*Poller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Poller{
		log:        cfg.Logger,
		clock:      cfg.Clock,
		sleepFloor: cfg.SleepFloor,
		cutoffHour: cfg.RollbackCutoffHour,
	}, nil
}

// Run executes one pull: optional create, then poll until Ready, timeout, or
// a terminal not-ready. The returned Request reflects the final loop state
// regardless of outcome.
func (p *Poller) Run(ctx context.Context, opts Options) (*core.Ready, Request, error) {
	req := Request{
		Date:         opts.Date,
		ExplicitDate: opts.Date != "",
		StartedAt:    p.clock.Now(),
	}
	req.Deadline = req.StartedAt.Add(opts.Timeout)
	if !req.ExplicitDate {
		req.Date = req.StartedAt.Format(core.DateLayout)
	}

	if opts.CreateFirst {
		p.log.Info("submitting generation request")
		if err := opts.Submit(ctx); err != nil {
			return nil, req, &CreateFailedError{Err: err}
		}
		p.log.Info("generation request accepted, file will take a while")
	}

	sleepFor := opts.PollInterval
	if sleepFor < p.sleepFloor {
		sleepFor = p.sleepFloor
	}

	var last core.Outcome
	for {
		req.Attempts++
		if opts.OnAttempt != nil {
			opts.OnAttempt(req.Attempts, req.Date)
		}
		p.log.Info("polling for generated file",
			zap.Int("attempt", req.Attempts),
			zap.String("date", req.Date))

		out, err := opts.Poll(ctx, req.Date)
		if err != nil {
			if ctx.Err() != nil {
				return nil, req, ctx.Err()
			}
			out = core.TransportError{Body: err.Error()}
		}
		last = out

		switch o := out.(type) {
		case core.Ready:
			p.log.Info("file ready",
				zap.String("file", o.FileName),
				zap.Int("attempts", req.Attempts))
			return &o, req, nil
		case core.NotReady:
			p.log.Info("file not ready",
				zap.String("error_code", o.ErrorCode),
				zap.String("message", o.ErrorMessage))
		case core.TransportError:
			p.log.Warn("transport error while polling",
				zap.Int("status", o.StatusCode),
				zap.String("body", o.Body))
		default:
			return nil, req, fmt.Errorf("unexpected poll outcome type %T", out)
		}

		if !opts.CreateFirst {
			return nil, req, &NotReadyError{Attempts: req.Attempts, Last: last}
		}

		// Early in the morning the vendor may not have today's export yet;
		// try the previous calendar day exactly once, without sleeping.
		if !req.ExplicitDate && !req.TriedPreviousDay && p.clock.Now().Hour() < p.cutoffHour {
			req.Date = p.clock.Now().AddDate(0, 0, -1).Format(core.DateLayout)
			req.TriedPreviousDay = true
			p.log.Info("retrying with previous day", zap.String("date", req.Date))
			continue
		}

		remaining := req.Deadline.Sub(p.clock.Now())
		if remaining <= 0 || sleepFor >= remaining {
			// Sleeping the floor cannot beat the deadline, so fail now.
			return nil, req, &TimeoutError{
				Attempts: req.Attempts,
				Elapsed:  p.clock.Since(req.StartedAt),
				Last:     last,
			}
		}

		p.log.Info("sleeping before next attempt",
			zap.Duration("sleep", sleepFor),
			zap.Duration("remaining", remaining))
		select {
		case <-p.clock.After(sleepFor):
		case <-ctx.Done():
			return nil, req, ctx.Err()
		}
	}
}
