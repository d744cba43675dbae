package proc

import (
	"context"
	"sync"
)

// Call records one FakeRunner invocation.
type Call struct {
	Name  string
	Args  []string
	Input string
}

// Result is a scripted FakeRunner outcome.
type Result struct {
	Output string
	Err    error
}

// FakeRunner is a scripted Runner (for testing). Results are queued per
// command name with Stub and consumed in invocation order; a command with
// an empty queue succeeds with no output.
type FakeRunner struct {
	mu     sync.Mutex
	calls  []Call
	queues map[string][]Result
}

// NewFakeRunner creates an empty fake runner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{queues: make(map[string][]Result)}
}

// Stub queues one result for the named command.
func (f *FakeRunner) Stub(name, output string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[name] = append(f.queues[name], Result{Output: output, Err: err})
}

// Run records the call and returns the next queued result for name.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.record(Call{Name: name, Args: args})
}

// RunInput records the call, including its stdin payload.
func (f *FakeRunner) RunInput(ctx context.Context, input, name string, args ...string) ([]byte, error) {
	return f.record(Call{Name: name, Args: args, Input: input})
}

func (f *FakeRunner) record(c Call) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	queue := f.queues[c.Name]
	if len(queue) == 0 {
		return nil, nil
	}
	next := queue[0]
	f.queues[c.Name] = queue[1:]
	return []byte(next.Output), next.Err
}

// Calls returns every recorded invocation in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor returns the recorded invocations of the named command.
func (f *FakeRunner) CallsFor(name string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
