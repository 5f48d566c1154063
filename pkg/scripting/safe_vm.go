package scripting

import (
	"fmt"
	"time"

	"github.com/robertkrimen/otto"

	"chatwarden/pkg/logging"
)

// SafeVM evaluates rule condition expressions in a sandboxed JavaScript
// VM. Expressions are opaque to the engine: they get sender/receiver
// variables bound and must produce a value, usually a boolean.
type SafeVM struct {
	vm *otto.Otto
}

func NewSafeVM() *SafeVM {
	vm := otto.New()

	// Limit available globals
	if mathObj, err := vm.Get("Math"); err == nil {
		vm.Set("Math", mathObj)
	}
	if dateObj, err := vm.Get("Date"); err == nil {
		vm.Set("Date", dateObj)
	}

	// Remove potentially dangerous functions
	vm.Set("eval", otto.UndefinedValue())
	vm.Set("Function", otto.UndefinedValue())

	return &SafeVM{vm: vm}
}

// Evaluate runs an expression with the given variables bound and returns
// its exported result. Execution is interrupted after the timeout.
func (s *SafeVM) Evaluate(expression string, bindings map[string]interface{}, timeout time.Duration) (interface{}, error) {
	logging.Logger.Debug().Str("expression", expression).Interface("bindings", bindings).Msg("Evaluating script")

	for name, value := range bindings {
		if err := s.vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("error binding variable %s: %w", name, err)
		}
	}
	defer func() {
		for name := range bindings {
			s.vm.Set(name, otto.UndefinedValue())
		}
	}()

	done := make(chan interface{})
	errChan := make(chan error)

	s.vm.Interrupt = make(chan func(), 1)
	defer func() { s.vm.Interrupt = nil }()

	go func() {
		defer close(done)
		defer close(errChan)
		defer func() {
			if r := recover(); r != nil {
				if r == "Execution timeout" {
					errChan <- fmt.Errorf("script execution timed out")
				} else {
					errChan <- fmt.Errorf("script panicked: %v", r)
				}
			}
		}()

		s.vm.SetStackDepthLimit(1000)

		value, err := s.vm.Eval("(function() { return (" + expression + "); })()")
		if err != nil {
			errChan <- fmt.Errorf("error evaluating expression: %w", err)
			return
		}

		exportedResult, err := value.Export()
		if err != nil {
			errChan <- fmt.Errorf("error exporting result: %w", err)
			return
		}
		done <- exportedResult
	}()

	timer := time.NewTimer(timeout + 10*time.Millisecond)
	defer timer.Stop()

	select {
	case result := <-done:
		return result, nil
	case err := <-errChan:
		logging.Logger.Error().Err(err).Str("expression", expression).Msg("Script execution error")
		return nil, err
	case <-timer.C:
		s.vm.Interrupt <- func() { panic("Execution timeout") }
		logging.Logger.Error().Str("expression", expression).Msg("Script execution timed out")
		return nil, fmt.Errorf("script execution timed out")
	}
}

// EvaluateBool runs a condition expression. A non-boolean result is a
// programming error in the rule file, raised as a SCRIPT error rather
// than silently coerced.
func (s *SafeVM) EvaluateBool(expression string, bindings map[string]interface{}, timeout time.Duration) (bool, error) {
	result, err := s.Evaluate(expression, bindings, timeout)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, logging.NewError(logging.ErrorTypeScript,
			fmt.Sprintf("script returned non-boolean value %v", result), nil,
			map[string]interface{}{"expression": expression})
	}
	return b, nil
}
