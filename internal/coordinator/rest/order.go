package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"robosync/internal/coordinator"
	"robosync/internal/models"
	"strconv"
)

func (c *Client) GetOrder(ctx context.Context, orderID int64) (models.Order, error) {
	params := url.Values{}
	params.Set("order_id", strconv.FormatInt(orderID, 10))

	var order models.Order
	if err := c.doRequest(ctx, http.MethodGet, "/api/order/", params, nil, &order); err != nil {
		return models.Order{}, notFoundAsBadRequest(err)
	}
	return order, nil
}

func (c *Client) MakeOrder(ctx context.Context, req models.MakeRequest) (int64, error) {
	var resp makeResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/make/", nil, req, &resp); err != nil {
		return 0, notFoundAsBadRequest(err)
	}
	if resp.ID == 0 {
		return 0, &coordinator.TransportError{Op: "POST /api/make/", Err: errors.New("response carries no order id")}
	}
	return resp.ID, nil
}
