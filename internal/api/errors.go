package api

import (
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrMaxRetries     = crerr.New("riot api: max retries reached")
	ErrInvalidPayload = crerr.New("riot api: invalid payload")
)

// StatusError is a non-2xx upstream response handed back to the caller.
type StatusError struct {
	Status int
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("riot api status %d for %s: %s", e.Status, e.URL, e.Body)
}

func IsStatusError(err error) bool {
	var se *StatusError
	return crerr.As(err, &se)
}

func IsNotFound(err error) bool {
	var se *StatusError
	return crerr.As(err, &se) && se.Status == http.StatusNotFound
}
