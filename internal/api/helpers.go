package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v5"
)

const headerRequestID = "X-Request-Id"

// ResponseError is the body of every failed request, wrapped as
// {"error": {...}}.
type ResponseError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(c *echo.Context, status int, errType, msg, requestID string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Type:      errType,
			Message:   msg,
			RequestID: requestID,
		},
	})
}

func writeBadRequest(c *echo.Context, msg, requestID string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, requestID)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

// readBody reads at most limit bytes of the request body.
func readBody(c *echo.Context, limit int64) ([]byte, error) {
	body := c.Request().Body
	if body == nil {
		return nil, newInvalidRequest("request body is required")
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, limit)
	}
	if len(data) == 0 {
		return nil, newInvalidRequest("request body is required")
	}
	return data, nil
}
