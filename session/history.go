package session

import (
	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/result"
)

// historyHandler forwards history callbacks to the history delegate. Calls
// arriving while no delegate is set are queued, with their original
// arguments, until one is.
type historyHandler struct{ s *Session }

var _ engine.HistoryDelegate = historyHandler{}

// deferUntilDelegate queues fn to run once a history delegate is set. If
// there is still none when the queue drains, fn is queued again.
func (s *Session) deferUntilDelegate(fn func(d engine.HistoryDelegate)) {
	var run func()
	run = func() {
		if d := s.historyDelegate; d != nil {
			fn(d)
			return
		}
		s.queue.Defer(run)
	}
	s.queue.Defer(run)
}

// completeFrom completes out with the outcome of r, or zero if r is nil.
func completeFrom[T any](out *result.Result[T], r *result.Result[T]) {
	if r == nil {
		var zero T
		_ = out.Complete(zero)
		return
	}
	r.Accept(
		func(v T) { _ = out.Complete(v) },
		func(err error) { _ = out.CompleteWithError(err) },
	)
}

func (x historyHandler) OnVisited(es engine.Session, uri, lastVisitedURI string, flags engine.VisitFlags) *result.Result[bool] {
	s := x.s
	if !s.isCurrent(es) {
		return result.FromValue(s.exec(), false)
	}
	if d := s.historyDelegate; d != nil {
		return d.OnVisited(es, uri, lastVisitedURI, flags)
	}
	out := result.New[bool](s.exec())
	s.deferUntilDelegate(func(d engine.HistoryDelegate) {
		completeFrom(out, d.OnVisited(es, uri, lastVisitedURI, flags))
	})
	return out
}

func (x historyHandler) GetVisited(es engine.Session, uris []string) *result.Result[[]bool] {
	s := x.s
	if !s.isCurrent(es) {
		return result.FromValue(s.exec(), []bool{})
	}
	if d := s.historyDelegate; d != nil {
		return d.GetVisited(es, uris)
	}
	out := result.New[[]bool](s.exec())
	s.deferUntilDelegate(func(d engine.HistoryDelegate) {
		completeFrom(out, d.GetVisited(es, uris))
	})
	return out
}

func (x historyHandler) OnHistoryStateChange(es engine.Session, list engine.HistoryList) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	if d := s.historyDelegate; d != nil {
		d.OnHistoryStateChange(es, list)
		return
	}
	s.deferUntilDelegate(func(d engine.HistoryDelegate) {
		d.OnHistoryStateChange(es, list)
	})
}
