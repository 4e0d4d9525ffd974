package rest

import (
	"net/http"
	"robosync/internal/logger"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// envelope captures the soft-failure shapes a coordinator may return
// instead of the requested payload.
type envelope struct {
	BadRequest string `json:"bad_request"`
	NotFound   string `json:"not_found"`
}

type makeResponse struct {
	ID int64 `json:"id"`
}
