package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/joeycumines/go-browsersession/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_SingleAssignment(t *testing.T) {
	for _, tc := range []struct {
		name   string
		first  func(r *Result[int]) error
		value  int
		failed bool
	}{
		{name: `value then value`, first: func(r *Result[int]) error { return r.Complete(1) }, value: 1},
		{name: `error then value`, first: func(r *Result[int]) error { return r.CompleteWithError(errors.New(`first`)) }, failed: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			q := eventloop.NewQueue()
			r := New[int](q)
			require.NoError(t, tc.first(r))

			assert.ErrorIs(t, r.Complete(2), ErrAlreadyComplete)
			assert.ErrorIs(t, r.CompleteWithError(errors.New(`second`)), ErrAlreadyComplete)

			if tc.failed {
				assert.Equal(t, Rejected, r.State())
				assert.EqualError(t, r.Err(), `first`)
				assert.Zero(t, r.Value())
			} else {
				assert.Equal(t, Fulfilled, r.State())
				assert.NoError(t, r.Err())
				assert.Equal(t, tc.value, r.Value())
			}
		})
	}
}

func TestResult_CompleteWithNilError(t *testing.T) {
	r := New[int](nil)
	assert.ErrorIs(t, r.CompleteWithError(nil), ErrNilError)
	assert.Equal(t, Pending, r.State())
	assert.Panics(t, func() { FromError[int](nil, nil) })
}

func TestResult_ListenersDeferredToExecutor(t *testing.T) {
	q := eventloop.NewQueue()
	r := New[string](q)

	var got []string
	r.Accept(func(v string) { got = append(got, `early:`+v) }, nil)

	require.NoError(t, r.Complete(`x`))
	assert.Empty(t, got, `listeners must not run inside Complete`)

	q.Flush()
	assert.Equal(t, []string{`early:x`}, got)

	// late registration still observes the value, exactly once, on a later turn
	r.Accept(func(v string) { got = append(got, `late:`+v) }, nil)
	assert.Len(t, got, 1)
	q.Flush()
	q.Flush()
	assert.Equal(t, []string{`early:x`, `late:x`}, got)
}

func TestResult_LateListenerObservesError(t *testing.T) {
	q := eventloop.NewQueue()
	want := errors.New(`boom`)
	r := FromError[int](q, want)

	var got error
	r.Accept(nil, func(err error) { got = err })
	require.Nil(t, got)
	q.Flush()
	assert.Same(t, want, got)
}

func TestResult_DispatchGroupsPerExecutor(t *testing.T) {
	q1 := eventloop.NewQueue()
	q2 := eventloop.NewQueue()
	r := New[int](q1)

	var order []string
	record := func(name string) func(int) (*Result[struct{}], error) {
		return func(int) (*Result[struct{}], error) {
			order = append(order, name)
			return nil, nil
		}
	}
	ThenOn(r, q1, record(`a1`), nil)
	ThenOn(r, q2, record(`b1`), nil)
	ThenOn(r, q1, record(`a2`), nil)
	ThenOn(r, q2, record(`b2`), nil)

	require.NoError(t, r.Complete(0))

	// one task per executor
	assert.Equal(t, 1, q1.Len())
	assert.Equal(t, 1, q2.Len())

	q2.Drain()
	q1.Drain()
	assert.Equal(t, []string{`b1`, `b2`, `a1`, `a2`}, order)
}

func TestResult_RejectingExecutorRunsInline(t *testing.T) {
	q := eventloop.NewQueue()
	q.Close()
	r := New[int](q)
	var got int
	r.Accept(func(v int) { got = v }, nil)
	require.NoError(t, r.Complete(7))
	assert.Equal(t, 7, got)
}

func TestThen_Chaining(t *testing.T) {
	q := eventloop.NewQueue()
	r := New[int](q)

	doubled := Map(r, func(v int) (int, error) { return v * 2, nil })
	str := Then(doubled, func(v int) (*Result[string], error) {
		return FromValue(q, fmt.Sprint(v)), nil
	}, nil)
	nilResult := Then(r, func(int) (*Result[string], error) { return nil, nil }, nil)

	require.NoError(t, r.Complete(21))
	q.Flush()

	assert.Equal(t, 42, doubled.Value())
	assert.Equal(t, `42`, str.Value())
	assert.Equal(t, Fulfilled, nilResult.State())
	assert.Equal(t, ``, nilResult.Value())
	assert.Same(t, Executor(q), str.Executor())
}

func TestThen_ErrorPassThroughAndCatch(t *testing.T) {
	q := eventloop.NewQueue()
	r := New[int](q)
	want := errors.New(`upstream`)

	mapped := Map(r, func(v int) (int, error) {
		t.Error(`value continuation must not run`)
		return v, nil
	})
	recovered := Catch(mapped, func(err error) (int, error) {
		assert.Same(t, want, err)
		return -1, nil
	})

	require.NoError(t, r.CompleteWithError(want))
	q.Flush()

	assert.Same(t, want, mapped.Err())
	assert.Equal(t, -1, recovered.Value())
	assert.NoError(t, recovered.Err())
}

func TestThen_CatchPassesValues(t *testing.T) {
	q := eventloop.NewQueue()
	out := Catch(FromValue(q, 5), func(error) (int, error) { return 0, errors.New(`unreachable`) })
	q.Flush()
	assert.Equal(t, 5, out.Value())
}

func TestThen_NoListenerPanics(t *testing.T) {
	assert.PanicsWithValue(t, ErrNoListener, func() {
		Then[int, int](New[int](nil), nil, nil)
	})
}

func TestThen_PanicBecomesError(t *testing.T) {
	q := eventloop.NewQueue()
	r := New[int](q)
	child := Then(r, func(int) (*Result[int], error) { panic(`kaboom`) }, nil)

	var got error
	child.Accept(nil, func(err error) { got = err })

	require.NoError(t, r.Complete(1))
	q.Flush()

	var pe *PanicError
	require.ErrorAs(t, got, &pe)
	assert.Equal(t, `kaboom`, pe.Value)
}

func TestThen_UncaughtErrorPanicsAtDispatch(t *testing.T) {
	q := eventloop.NewQueue()
	r := New[int](q)
	want := errors.New(`nobody handles me`)
	Map(r, func(int) (int, error) { return 0, want })

	require.NoError(t, r.Complete(1))

	defer func() {
		v := recover()
		var ue *UncaughtError
		require.ErrorAs(t, v.(error), &ue)
		assert.Same(t, want, ue.Err)
	}()
	q.Flush()
	t.Fatal(`expected panic`)
}

func TestThen_UncaughtErrorPropagatesToChainEnd(t *testing.T) {
	q := eventloop.NewQueue()
	r := New[int](q)
	want := errors.New(`late`)
	failing := Map(r, func(int) (int, error) { return 0, want })
	passThrough := Map(failing, func(v int) (int, error) { return v, nil })
	var got error
	passThrough.Accept(nil, func(err error) { got = err })

	require.NoError(t, r.Complete(1))
	assert.NotPanics(t, func() { q.Flush() })
	assert.Same(t, want, got)
}

func TestResult_WithExecutor(t *testing.T) {
	q1 := eventloop.NewQueue()
	q2 := eventloop.NewQueue()
	r := New[int](q1)
	d := CancelFunc(func() *Result[bool] { return FromValue(Inline, true) })
	r.SetCancellationDelegate(d)

	moved := r.WithExecutor(q2)
	assert.Same(t, Executor(q2), moved.Executor())
	assert.NotNil(t, moved.CancellationDelegate())

	var got int
	moved.Accept(func(v int) { got = v }, nil)
	require.NoError(t, r.Complete(3))
	q1.Flush()
	assert.Equal(t, 0, q1.Len())
	q2.Flush()
	assert.Equal(t, 3, got)
}

func TestEqual(t *testing.T) {
	err := errors.New(`e`)
	pending := New[int](nil)
	assert.True(t, Equal(pending, pending))
	assert.False(t, Equal(pending, New[int](nil)))
	assert.True(t, Equal(FromValue(nil, 1), FromValue(nil, 1)))
	assert.False(t, Equal(FromValue(nil, 1), FromValue(nil, 2)))
	assert.True(t, Equal(FromError[int](nil, err), FromError[int](nil, err)))
	assert.False(t, Equal(FromError[int](nil, err), FromValue(nil, 0)))
	assert.False(t, Equal(pending, nil))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, `Pending`, Pending.String())
	assert.Equal(t, `Fulfilled`, Fulfilled.String())
	assert.Equal(t, `Rejected`, Rejected.String())
	assert.Equal(t, `Unknown`, State(99).String())
}
