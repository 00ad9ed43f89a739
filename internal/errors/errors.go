package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError is an error that carries the HTTP status and the message shown
// to the client. Internal is logged but never rendered.
type APIError struct {
	Status   int               `json:"-"`
	Message  string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Internal error             `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

func New(status int, message string, err error) *APIError {
	return &APIError{Status: status, Message: message, Internal: err}
}

func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *APIError {
	return New(http.StatusUnauthorized, message, err)
}

func Forbidden(message string, err error) *APIError {
	return New(http.StatusForbidden, message, err)
}

func NotFound(message string, err error) *APIError {
	return New(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *APIError {
	return New(http.StatusConflict, message, err)
}

func UnprocessableEntity(message string, err error) *APIError {
	return New(http.StatusUnprocessableEntity, message, err)
}

func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError turns validator field errors into a 422 listing each
// failing field. Any other error becomes a 400.
func NewValidationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return BadRequest("Invalid input", err)
	}
	fields := make(map[string]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		fields[name] = validationMessage(fe)
		names = append(names, name)
	}
	apiErr := UnprocessableEntity(fmt.Sprintf("Invalid %s", strings.Join(names, ", ")), err)
	apiErr.Fields = fields
	return apiErr
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}
