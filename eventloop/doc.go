// Package eventloop provides the execution contexts that browsing sessions
// dispatch on.
//
// A [Loop] is a single-goroutine task executor: every task submitted to it
// runs, in FIFO order, on the goroutine that called [Loop.Run]. It reports
// whether the calling goroutine is that goroutine via [Loop.InContext], which
// is what blocking operations consult to refuse running on a context that
// must stay responsive.
//
// A [Queue] is a manually drained executor. Nothing runs until [Queue.Drain]
// is called, which makes dispatch ordering observable and deterministic in
// tests.
//
// Both satisfy the executor contract used by the result package: Submit
// accepts a task or returns an error if the executor can no longer run it.
package eventloop
