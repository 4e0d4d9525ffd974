package rest

import (
	"context"
	"net/http"
	"robosync/internal/models"
)

func (c *Client) PostUser(ctx context.Context, req models.UserRequest) (models.UserResponse, error) {
	var resp models.UserResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/user/", nil, req, &resp); err != nil {
		return models.UserResponse{}, notFoundAsBadRequest(err)
	}
	return resp, nil
}
