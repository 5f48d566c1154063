// chatwarden/pkg/logging/errors.go

package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

type ErrorType string

const (
	ErrorTypeParse  ErrorType = "PARSE"
	ErrorTypeEval   ErrorType = "EVAL"
	ErrorTypeScript ErrorType = "SCRIPT"
	ErrorTypeStore  ErrorType = "STORE"
	ErrorTypePoints ErrorType = "POINTS"
)

type WardenError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  map[string]interface{}
}

func (e *WardenError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *WardenError) Unwrap() error {
	return e.Err
}

func NewError(errType ErrorType, message string, err error, fields map[string]interface{}) *WardenError {
	return &WardenError{
		Type:    errType,
		Message: message,
		Err:     err,
		Fields:  fields,
	}
}

func LogError(logger zerolog.Logger, err error) {
	wardenErr, ok := err.(*WardenError)
	if !ok {
		logger.Error().Err(err).Msg(err.Error())
		return
	}

	event := logger.Error().Err(wardenErr.Err).
		Str("error_type", string(wardenErr.Type)).
		Str("message", wardenErr.Message)

	for k, v := range wardenErr.Fields {
		event = event.Interface(k, v)
	}

	event.Msg(wardenErr.Message)
}
