package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/metamendmarketing/reportbuilderv3/internal/db"
	"github.com/metamendmarketing/reportbuilderv3/internal/pipeline"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrArchiveDisabled is returned by run history endpoints when no database is configured.
var ErrArchiveDisabled = errors.New("run archive is not configured")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var precondition *pipeline.PreconditionError
	switch {
	case errors.As(err, &validation), errors.As(err, &precondition):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrArchiveDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
