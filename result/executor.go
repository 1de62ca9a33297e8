package result

type (
	// Executor is an execution context that listeners are dispatched on.
	//
	// Listeners are grouped per executor by equality, so implementations must
	// be comparable, in practice a pointer type. Submit returns an error if
	// the task cannot run, in which case it is run on the completing
	// goroutine instead.
	Executor interface {
		Submit(task func()) error
	}

	// Affine is implemented by executors bound to a goroutine, see
	// [Result.Poll].
	Affine interface {
		InContext() bool
	}

	inlineExecutor struct{}
)

// Inline runs every task synchronously, on the goroutine that submits it.
var Inline Executor = inlineExecutor{}

func (inlineExecutor) Submit(task func()) error {
	task()
	return nil
}

func inContext(exec Executor) bool {
	a, ok := exec.(Affine)
	return ok && a.InContext()
}
