package coordinator

import (
	"context"
	"errors"
	"fmt"
	"robosync/internal/models"
)

var (
	// ErrBadRequest marks a domain soft failure reported by the coordinator.
	ErrBadRequest = errors.New("coordinator rejected request")
	// ErrTransport marks a failure to reach or decode the coordinator.
	ErrTransport = errors.New("coordinator unreachable")
)

// BadRequestError carries the coordinator's human readable reason verbatim.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return e.Reason
}

func (e *BadRequestError) Unwrap() error {
	return ErrBadRequest
}

// TransportError wraps any network, status or decoding failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Reason returns the text to surface to the user for err.
func Reason(err error) string {
	var bad *BadRequestError
	if errors.As(err, &bad) {
		return bad.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Client talks to a single coordinator base endpoint.
type Client interface {
	BaseURL() string
	GetBook(ctx context.Context) ([]models.Order, error)
	GetLimits(ctx context.Context) (models.LimitList, error)
	GetInfo(ctx context.Context) (models.Info, error)
	PostUser(ctx context.Context, req models.UserRequest) (models.UserResponse, error)
	GetOrder(ctx context.Context, orderID int64) (models.Order, error)
	MakeOrder(ctx context.Context, req models.MakeRequest) (int64, error)
}

// Factory builds a Client for a resolved base endpoint.
type Factory func(baseURL string) Client
