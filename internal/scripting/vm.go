// Package scripting runs user-supplied JavaScript autoplay bots against a
// game session: the script defines step(), the engine calls it in a loop
// and exposes move/collect/deposit plus read-only game state.
package scripting

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// LogEntry represents a single log message from the script.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// VM wraps a goja runtime with sandbox restrictions and global function
// injection.
type VM struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int

	// stopRequested is set when the script calls stop().
	stopRequested bool
}

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// NewVM creates a sandboxed goja runtime with global functions injected.
func NewVM() *VM {
	vm := &VM{
		runtime: goja.New(),
		maxLogs: 500,
	}
	vm.injectGlobalFunctions()
	return vm
}

// injectGlobalFunctions registers log, stop, and console.log.
func (vm *VM) injectGlobalFunctions() {
	// log(...args) — appends to log buffer
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		vm.logsMu.Lock()
		if len(vm.logs) >= vm.maxLogs {
			vm.logs = vm.logs[1:]
		}
		vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: msg})
		vm.logsMu.Unlock()

		return goja.Undefined()
	})

	// console.log — alias for log
	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	// stop() — signals the engine to stop after the current step
	vm.runtime.Set("stop", func(call goja.FunctionCall) goja.Value {
		vm.mu.Lock()
		vm.stopRequested = true
		vm.mu.Unlock()
		return goja.Undefined()
	})

	// Math is already available in goja by default.
	// Block dangerous globals.
	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("fetch", goja.Undefined())
	vm.runtime.Set("XMLHttpRequest", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

// Set exposes a Go value or function to the script under the given name.
func (vm *VM) Set(name string, value any) {
	vm.runtime.Set(name, value)
}

// Execute runs user script source code. This should be called once at the
// start of a run to register step().
func (vm *VM) Execute(source string) error {
	return vm.runWithTimeout(scriptInitTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		_, err := vm.runtime.RunString(source)
		if err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
}

// CallStep calls the user-defined step() function.
func (vm *VM) CallStep() error {
	return vm.runWithTimeout(scriptCallTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		fn := vm.runtime.Get("step")
		if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
			return fmt.Errorf("step() function is not defined")
		}

		callable, ok := goja.AssertFunction(fn)
		if !ok {
			return fmt.Errorf("step is not a function")
		}

		_, err := callable(goja.Undefined())
		if err != nil {
			return fmt.Errorf("step() error: %w", err)
		}
		return nil
	})
}

// HasStepFunc returns true if the user script defined a step() function.
func (vm *VM) HasStepFunc() bool {
	fn := vm.runtime.Get("step")
	if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
		return false
	}
	_, ok := goja.AssertFunction(fn)
	return ok
}

// IsStopRequested returns true if stop() was called from the script.
func (vm *VM) IsStopRequested() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stopRequested
}

// GetLogs returns a copy of the current log buffer.
func (vm *VM) GetLogs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

func (vm *VM) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		// Interrupt a runaway script execution.
		vm.runtime.Interrupt("script execution timeout")
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("script timed out: %w", err)
			}
			return fmt.Errorf("script timed out")
		case <-time.After(200 * time.Millisecond):
			return fmt.Errorf("script timed out")
		}
	}
}
