package services

import (
	"strings"
	"time"

	"payportal/internal/pkg/validation"
)

// timeNow is replaced in tests
var timeNow = time.Now

// FieldErrors reports input that failed whitelist validation
type FieldErrors validation.Errors

func fieldErrors(errs validation.Errors) FieldErrors { return FieldErrors(errs) }

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for _, fe := range e {
		fields = append(fields, fe.Field)
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}
