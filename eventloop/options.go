// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventloop

import (
	"errors"

	"github.com/joeycumines/logiface"
)

type loopOptions struct {
	logger       *logiface.Logger[logiface.Event]
	name         string
	panicHandler func(v any)
}

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

type loopOptionFunc func(*loopOptions) error

func (f loopOptionFunc) applyLoop(opts *loopOptions) error { return f(opts) }

// WithLogger sets the structured logger used to report recovered task
// panics. A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return loopOptionFunc(func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	})
}

// WithName tags the loop's log output, to tell apart the UI loop from any
// others sharing a logger.
func WithName(name string) LoopOption {
	return loopOptionFunc(func(opts *loopOptions) error {
		if name == `` {
			return errors.New(`eventloop: empty loop name`)
		}
		opts.name = name
		return nil
	})
}

// WithPanicHandler registers a callback, run on the loop goroutine, that
// receives the value of every recovered task panic. Unhandled result errors
// surface here when their owner is a Loop.
func WithPanicHandler(fn func(v any)) LoopOption {
	return loopOptionFunc(func(opts *loopOptions) error {
		opts.panicHandler = fn
		return nil
	})
}

func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	var cfg loopOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.name != `` {
		cfg.logger = cfg.logger.Clone().Str(`loop`, cfg.name).Logger()
	}
	return &cfg, nil
}
