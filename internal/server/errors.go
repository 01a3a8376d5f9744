package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/schemas"
)

// ErrPayloadTooLarge indicates a webhook body over the size limit.
var ErrPayloadTooLarge = errors.New("payload too large")

// HTTPStatus returns the status code a webhook sender gets for err.
// Senders retry on 5xx, so only failures a retry could fix map there.
func HTTPStatus(err error) int {
	var (
		ve *schemas.ValidationError
		fe *apperr.FormatError
		de *apperr.DataIntegrityError
		nf *apperr.NotFoundError
		ce *apperr.ConfigurationError
		te *apperr.TransientIOError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &ve), errors.As(err, &fe):
		return http.StatusBadRequest
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable
	case errors.As(err, &te):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
