// chatwarden/pkg/scripting/safe_vm_test.go

package scripting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSafeVM(t *testing.T) {
	vm := NewSafeVM()
	assert.NotNil(t, vm)
	assert.NotNil(t, vm.vm)
}

func TestEvaluate(t *testing.T) {
	vm := NewSafeVM()

	result, err := vm.Evaluate("a + b", map[string]interface{}{"a": 5, "b": 3}, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, float64(8), result)

	result, err = vm.Evaluate(`player + " says " + message`,
		map[string]interface{}{"player": "Steve", "message": "hi"}, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, "Steve says hi", result)
}

func TestEvaluateBool(t *testing.T) {
	vm := NewSafeVM()

	ok, err := vm.EvaluateBool(`message.length > 3`,
		map[string]interface{}{"message": "hello"}, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = vm.EvaluateBool(`gamemode == "creative"`,
		map[string]interface{}{"gamemode": "survival"}, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateBoolNonBoolean(t *testing.T) {
	vm := NewSafeVM()

	_, err := vm.EvaluateBool("1 + 1", nil, 100*time.Millisecond)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "non-boolean")
}

func TestEvaluateTimeout(t *testing.T) {
	vm := NewSafeVM()

	_, err := vm.Evaluate("(function() { while(true) {} })()", nil, 100*time.Millisecond)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestEvaluateSyntaxError(t *testing.T) {
	vm := NewSafeVM()

	_, err := vm.Evaluate("this is not javascript", nil, 100*time.Millisecond)
	assert.Error(t, err)
}

func TestEvaluateSandbox(t *testing.T) {
	vm := NewSafeVM()

	// eval is stripped from the VM.
	result, err := vm.Evaluate("typeof eval", nil, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, "undefined", result)
}

func TestBindingsAreCleared(t *testing.T) {
	vm := NewSafeVM()

	_, err := vm.Evaluate("secret", map[string]interface{}{"secret": 42}, 100*time.Millisecond)
	assert.NoError(t, err)

	result, err := vm.Evaluate("typeof secret", nil, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, "undefined", result)
}
