// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventloop

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

func startLoop(t *testing.T, opts ...LoopOption) (*Loop, <-chan error) {
	t.Helper()
	l, err := New(opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()
	t.Cleanup(func() {
		_ = l.Close()
		<-l.Done()
	})
	// wait until running, so tests that depend on affinity are deterministic
	for l.State() == StateAwake {
		time.Sleep(time.Millisecond)
	}
	return l, errCh
}

func TestLoop_SubmitRunsInOrderOnLoopGoroutine(t *testing.T) {
	l, _ := startLoop(t)

	var (
		mu    sync.Mutex
		order []int
		done  = make(chan struct{})
	)
	for i := 0; i < 100; i++ {
		i := i
		if err := l.Submit(func() {
			if !l.InContext() {
				t.Errorf("task %d not running on loop goroutine", i)
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 99 {
				close(done)
			}
		}); err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d", i, v)
		}
	}
	if l.InContext() {
		t.Fatal("test goroutine reported as loop goroutine")
	}
}

func TestLoop_RunTwice(t *testing.T) {
	l, _ := startLoop(t)
	if err := l.Run(context.Background()); !errors.Is(err, ErrLoopAlreadyRunning) {
		t.Fatalf("expected ErrLoopAlreadyRunning, got %v", err)
	}
	errCh := make(chan error, 1)
	if err := l.Submit(func() { errCh <- l.Run(context.Background()) }); err != nil {
		t.Fatal(err)
	}
	if err := <-errCh; !errors.Is(err, ErrReentrantRun) {
		t.Fatalf("expected ErrReentrantRun, got %v", err)
	}
}

func TestLoop_ShutdownDrainsQueue(t *testing.T) {
	l, errCh := startLoop(t)

	gate := make(chan struct{})
	var count int
	if err := l.Submit(func() { <-gate }); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := l.Submit(func() {
			count++
			if count == 10 {
				// queued during shutdown, still runs
				_ = l.Submit(func() { count++ })
			}
		}); err != nil {
			t.Fatal(err)
		}
	}

	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- l.Shutdown(context.Background()) }()
	for l.State() != StateTerminating {
		time.Sleep(time.Millisecond)
	}
	close(gate)

	if err := <-shutdownErr; err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Run() returned %v", err)
	}
	if count != 11 {
		t.Fatalf("expected 11 tasks to run, got %d", count)
	}
	if err := l.Submit(func() {}); !errors.Is(err, ErrLoopTerminated) {
		t.Fatalf("expected ErrLoopTerminated, got %v", err)
	}
	if err := l.Shutdown(context.Background()); !errors.Is(err, ErrLoopTerminated) {
		t.Fatalf("expected ErrLoopTerminated, got %v", err)
	}
}

func TestLoop_CloseBeforeRun(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Run(context.Background()); !errors.Is(err, ErrLoopTerminated) {
		t.Fatalf("expected ErrLoopTerminated, got %v", err)
	}
	if err := l.Close(); !errors.Is(err, ErrLoopTerminated) {
		t.Fatalf("expected ErrLoopTerminated, got %v", err)
	}
}

func TestLoop_ContextCancel(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if l.State() != StateTerminated {
		t.Fatalf("expected Terminated, got %s", l.State())
	}
}

func TestLoop_ScheduleTimer(t *testing.T) {
	l, _ := startLoop(t)

	fired := make(chan int, 3)
	if _, err := l.ScheduleTimer(30*time.Millisecond, func() { fired <- 2 }); err != nil {
		t.Fatal(err)
	}
	if _, err := l.ScheduleTimer(10*time.Millisecond, func() { fired <- 1 }); err != nil {
		t.Fatal(err)
	}
	id, err := l.ScheduleTimer(20*time.Millisecond, func() { fired <- -1 })
	if err != nil {
		t.Fatal(err)
	}
	if err := l.CancelTimer(id); err != nil {
		t.Fatalf("CancelTimer() failed: %v", err)
	}
	if err := l.CancelTimer(id); !errors.Is(err, ErrTimerNotFound) {
		t.Fatalf("expected ErrTimerNotFound, got %v", err)
	}

	for want := 1; want <= 2; want++ {
		select {
		case got := <-fired:
			if got != want {
				t.Fatalf("expected timer %d, got %d", want, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for timer")
		}
	}
}

func TestLoop_PanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	var bufMu sync.Mutex
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(writerFunc(func(p []byte) (int, error) {
			bufMu.Lock()
			defer bufMu.Unlock()
			return buf.Write(p)
		}))),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()

	recovered := make(chan any, 1)
	l, _ := startLoop(t, WithLogger(logger), WithName(`ui`), WithPanicHandler(func(v any) { recovered <- v }), nil)

	if err := l.Submit(func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}
	ran := make(chan struct{})
	if err := l.Submit(func() { close(ran) }); err != nil {
		t.Fatal(err)
	}

	select {
	case v := <-recovered:
		if v != "boom" {
			t.Fatalf("unexpected panic value: %v", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("panic handler not called")
	}
	<-ran

	bufMu.Lock()
	defer bufMu.Unlock()
	if s := buf.String(); !strings.Contains(s, `"lvl":"crit"`) || !strings.Contains(s, `eventloop: task panicked`) || !strings.Contains(s, `"loop":"ui"`) {
		t.Fatalf("unexpected log output: %s", s)
	}
}

func TestNew_invalidName(t *testing.T) {
	if _, err := New(WithName(``)); err == nil {
		t.Fatal("expected an error")
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
