package session

import (
	"sync"

	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/result"
)

// arbitrate reduces the answers of listeners to a load request to one: allow
// only if every listener allows (a nil answer allows), deny otherwise. The
// outcome is fixed once every answer is in, regardless of the order they
// complete in. The first listener error fails the whole request.
func arbitrate(exec result.Executor, listeners []engine.NavigationDelegate, ask func(engine.NavigationDelegate) *result.Result[engine.AllowOrDeny]) *result.Result[engine.AllowOrDeny] {
	if len(listeners) == 0 {
		return engine.AllowResult(exec)
	}

	out := result.New[engine.AllowOrDeny](exec)
	var (
		mu      sync.Mutex
		count   int
		allowed = true
		failed  bool
	)
	onAnswer := func(v engine.AllowOrDeny) {
		mu.Lock()
		if failed {
			mu.Unlock()
			return
		}
		if v == engine.Deny {
			allowed = false
		}
		count++
		if count != len(listeners) {
			mu.Unlock()
			return
		}
		decision := engine.Deny
		if allowed {
			decision = engine.Allow
		}
		mu.Unlock()
		_ = out.Complete(decision)
	}
	onError := func(err error) {
		mu.Lock()
		if failed {
			mu.Unlock()
			return
		}
		failed = true
		mu.Unlock()
		_ = out.CompleteWithError(err)
	}

	for _, l := range listeners {
		answer := ask(l)
		if answer == nil {
			onAnswer(engine.Allow)
			continue
		}
		answer.Accept(onAnswer, onError)
	}

	return out
}
