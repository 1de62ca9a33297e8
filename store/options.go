package store

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joeycumines/logiface"
)

type storeOptions struct {
	logger        *logiface.Logger[logiface.Event]
	mode          fs.FileMode
	timeout       time.Duration
	maxBatchDelay time.Duration
}

// Option configures a Store.
type Option interface {
	applyStore(*storeOptions) error
}

type optionFunc func(*storeOptions) error

func (f optionFunc) applyStore(opts *storeOptions) error { return f(opts) }

// WithLogger sets the logger, nil disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return optionFunc(func(opts *storeOptions) error {
		opts.logger = logger
		return nil
	})
}

// WithFileMode sets the permissions of a newly created database file.
func WithFileMode(mode fs.FileMode) Option {
	return optionFunc(func(opts *storeOptions) error {
		opts.mode = mode
		return nil
	})
}

// WithLockTimeout bounds the wait for the file lock held by another process.
// Zero waits indefinitely.
func WithLockTimeout(timeout time.Duration) Option {
	return optionFunc(func(opts *storeOptions) error {
		if timeout < 0 {
			return errors.New(`store: negative lock timeout`)
		}
		opts.timeout = timeout
		return nil
	})
}

// WithMaxBatchDelay sets how long writes wait to be coalesced.
func WithMaxBatchDelay(delay time.Duration) Option {
	return optionFunc(func(opts *storeOptions) error {
		if delay < 0 {
			return errors.New(`store: negative batch delay`)
		}
		opts.maxBatchDelay = delay
		return nil
	})
}

func resolveOptions(opts []Option) (*storeOptions, error) {
	cfg := &storeOptions{
		mode:    0o600,
		timeout: time.Second,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyStore(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
