package rest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"robosync/internal/coordinator"
	"robosync/internal/logger"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

type Options struct {
	Timeout time.Duration
	// SocksProxy is the host:port of a SOCKS5 proxy (Tor) used for .onion endpoints.
	SocksProxy string
}

func New(baseURL string, opts Options, log *logger.Logger) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if isOnion(baseURL) {
		if opts.SocksProxy == "" {
			return nil, fmt.Errorf("onion endpoint %s requires a socks proxy", baseURL)
		}
		dialer, err := proxy.SOCKS5("tcp", opts.SocksProxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create socks dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = dialContext(dialer)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		log: log,
	}, nil
}

// NewFactory returns a coordinator.Factory. A client that cannot be built
// still satisfies the interface and fails every call with a transport error.
func NewFactory(opts Options, log *logger.Logger) coordinator.Factory {
	return func(baseURL string) coordinator.Client {
		c, err := New(baseURL, opts, log)
		if err != nil {
			log.WithComponent("coordinator").WithError(err).Error("Cannot build coordinator client.")
			return &brokenClient{baseURL: baseURL, err: err}
		}
		return c
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

func isOnion(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), ".onion")
}
