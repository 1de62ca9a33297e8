package session

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// NewLogger returns a JSON logger writing to w, for [WithLogger].
func NewLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// sessionLogger returns a logger tagged with the session ID, nil if logging
// is disabled.
func sessionLogger(logger *logiface.Logger[logiface.Event], id string) *logiface.Logger[logiface.Event] {
	return logger.Clone().Str(`session_id`, id).Logger()
}
