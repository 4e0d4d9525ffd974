package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"robosync/internal/coordinator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var errNotFound = errors.New("not found")

type notFoundError struct {
	reason string
}

func (e *notFoundError) Error() string {
	return e.reason
}

func (e *notFoundError) Is(target error) bool {
	return target == errNotFound
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any, out any) error {
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	urlStr := c.baseURL + path
	if len(params) > 0 {
		urlStr += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, bodyReader)
	if err != nil {
		return &coordinator.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	requestID := uuid.NewString()
	c.logEntry().WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
	}).Debug("Coordinator request.")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &coordinator.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &coordinator.TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logEntry().WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     resp.StatusCode,
	}).Debug("Coordinator response.")

	if len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '{' {
		var env envelope
		if err := json.Unmarshal(data, &env); err == nil {
			if env.BadRequest != "" {
				return &coordinator.BadRequestError{Reason: env.BadRequest}
			}
			if env.NotFound != "" {
				return &notFoundError{reason: env.NotFound}
			}
		}
	}

	if resp.StatusCode >= 400 {
		return &coordinator.TransportError{Op: op, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &coordinator.TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func (c *Client) logEntry() *logrus.Entry {
	return c.log.WithComponent("coordinator").WithField("base_url", c.baseURL)
}
