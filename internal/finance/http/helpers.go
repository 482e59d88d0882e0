package http

import (
	"errors"
)

// requestError tags parameter validation failures so they map to a 400
// problem response instead of a report envelope failure.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func wrapRequestError(err error) error {
	if err == nil {
		return nil
	}
	return &requestError{err: err}
}

func isRequestError(err error) bool {
	var reqErr *requestError
	return errors.As(err, &reqErr)
}
