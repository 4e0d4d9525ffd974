package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"robosync/internal/coordinator"
	"robosync/internal/models"
	"strconv"
)

// GetBook returns the public order book. A coordinator with no public
// orders answers not_found, which maps to an empty book.
func (c *Client) GetBook(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := c.doRequest(ctx, http.MethodGet, "/api/book/", nil, nil, &orders)
	if errors.Is(err, errNotFound) {
		return []models.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (c *Client) GetLimits(ctx context.Context) (models.LimitList, error) {
	var raw map[string]models.Limit
	if err := c.doRequest(ctx, http.MethodGet, "/api/limits/", nil, nil, &raw); err != nil {
		return nil, notFoundAsBadRequest(err)
	}

	limits := make(models.LimitList, len(raw))
	for key, limit := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, &coordinator.TransportError{Op: "GET /api/limits/", Err: fmt.Errorf("invalid currency id %q: %w", key, err)}
		}
		limits[id] = limit
	}
	return limits, nil
}

func (c *Client) GetInfo(ctx context.Context) (models.Info, error) {
	var info models.Info
	if err := c.doRequest(ctx, http.MethodGet, "/api/info/", nil, nil, &info); err != nil {
		return models.Info{}, notFoundAsBadRequest(err)
	}
	return info, nil
}

func notFoundAsBadRequest(err error) error {
	var nf *notFoundError
	if errors.As(err, &nf) {
		return &coordinator.BadRequestError{Reason: nf.reason}
	}
	return err
}
