// chatwarden/pkg/logging/errors_test.go

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name        string
		errType     ErrorType
		message     string
		err         error
		fields      map[string]interface{}
		expectedMsg string
	}{
		{
			name:        "Parse error",
			errType:     ErrorTypeParse,
			message:     "Failed to parse rule file",
			err:         errors.New("unknown directive"),
			fields:      map[string]interface{}{"line": 10},
			expectedMsg: "PARSE: Failed to parse rule file",
		},
		{
			name:        "Script error",
			errType:     ErrorTypeScript,
			message:     "Script returned non-boolean",
			err:         nil,
			fields:      nil,
			expectedMsg: "SCRIPT: Script returned non-boolean",
		},
		{
			name:        "Eval error",
			errType:     ErrorTypeEval,
			message:     "Operator evaluation failed",
			err:         errors.New("bad capture index"),
			fields:      map[string]interface{}{"rule": "(?i)spam"},
			expectedMsg: "EVAL: Operator evaluation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wardenErr := NewError(tt.errType, tt.message, tt.err, tt.fields)

			assert.Equal(t, tt.errType, wardenErr.Type)
			assert.Equal(t, tt.message, wardenErr.Message)
			assert.Equal(t, tt.err, wardenErr.Err)
			assert.Equal(t, tt.fields, wardenErr.Fields)
			assert.Equal(t, tt.expectedMsg, wardenErr.Error())

			if tt.err != nil {
				assert.Equal(t, tt.err, wardenErr.Unwrap())
			} else {
				assert.Nil(t, wardenErr.Unwrap())
			}
		})
	}
}

func TestLogError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected map[string]interface{}
	}{
		{
			name: "WardenError with all fields",
			err: &WardenError{
				Type:    ErrorTypeEval,
				Message: "Test error",
				Err:     errors.New("underlying error"),
				Fields: map[string]interface{}{
					"key1": "value1",
					"key2": 42,
				},
			},
			expected: map[string]interface{}{
				"error":      "underlying error",
				"error_type": "EVAL",
				"message":    "Test error",
				"key1":       "value1",
				"key2":       float64(42),
				"level":      "error",
			},
		},
		{
			name: "WardenError without underlying error",
			err: &WardenError{
				Type:    ErrorTypeParse,
				Message: "Parse error",
				Fields: map[string]interface{}{
					"line": 10,
				},
			},
			expected: map[string]interface{}{
				"error_type": "PARSE",
				"message":    "Parse error",
				"line":       float64(10),
				"level":      "error",
			},
		},
		{
			name: "Standard error",
			err:  errors.New("standard error"),
			expected: map[string]interface{}{
				"error":   "standard error",
				"message": "standard error",
				"level":   "error",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mockLogger := zerolog.New(&buf)

			LogError(mockLogger, tt.err)

			var logged map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &logged)
			assert.NoError(t, err)

			for k, v := range tt.expected {
				assert.Equal(t, v, logged[k], "Mismatch for key %s", k)
			}

			for k := range logged {
				_, expected := tt.expected[k]
				if !expected && k != "time" {
					t.Errorf("Unexpected key in logged data: %s", k)
				}
			}
		})
	}
}
