package client

import (
	"encoding/json"
	"net/http"

	"github.com/antonio-alexander/go-employee-crud/internal/data"

	"github.com/pkg/errors"
)

// responseError converts a non-success response into one of the
// data errors so callers can use errors.Is
func responseError(statusCode int, body []byte) error {
	message := string(body)
	e := &data.Error{}
	if err := json.Unmarshal(body, e); err == nil && e.Error != "" {
		message = e.Error
	}
	switch statusCode {
	default:
		return errors.Errorf("status code: %d; %s", statusCode, message)
	case http.StatusNotFound:
		return errors.Wrap(data.ErrNotFound, message)
	case http.StatusBadRequest:
		return errors.Wrap(data.ErrInvalidArgument, message)
	case http.StatusForbidden:
		return errors.Wrap(data.ErrMutateDisabled, message)
	}
}
