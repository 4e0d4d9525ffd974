package rest

import (
	"context"
	"robosync/internal/coordinator"
	"robosync/internal/models"
)

type brokenClient struct {
	baseURL string
	err     error
}

func (b *brokenClient) fail(op string) error {
	return &coordinator.TransportError{Op: op, Err: b.err}
}

func (b *brokenClient) BaseURL() string { return b.baseURL }

func (b *brokenClient) GetBook(context.Context) ([]models.Order, error) {
	return nil, b.fail("GET /api/book/")
}

func (b *brokenClient) GetLimits(context.Context) (models.LimitList, error) {
	return nil, b.fail("GET /api/limits/")
}

func (b *brokenClient) GetInfo(context.Context) (models.Info, error) {
	return models.Info{}, b.fail("GET /api/info/")
}

func (b *brokenClient) PostUser(context.Context, models.UserRequest) (models.UserResponse, error) {
	return models.UserResponse{}, b.fail("POST /api/user/")
}

func (b *brokenClient) GetOrder(context.Context, int64) (models.Order, error) {
	return models.Order{}, b.fail("GET /api/order/")
}

func (b *brokenClient) MakeOrder(context.Context, models.MakeRequest) (int64, error) {
	return 0, b.fail("POST /api/make/")
}
