package countryapi

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNetwork is returned once every attempt failed on transport errors or 5xx responses.
	ErrNetwork = errors.New("network error while fetching country listing")
	// ErrMalformedResponse covers payloads that are not a JSON array of objects.
	ErrMalformedResponse = errors.New("malformed country listing response")
	ErrEmptyResponse     = errors.Wrap(ErrMalformedResponse, "api returned empty data")
)

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}
