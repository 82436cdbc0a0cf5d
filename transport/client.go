package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	proton "github.com/starfederation/proton-go"
)

// DefaultMaxResponseBytes bounds response bodies read by Client.
const DefaultMaxResponseBytes = 8 << 20

// Client exchanges ProtoN messages with a server.
type Client struct {
	BaseURL          string
	HTTPClient       *http.Client
	Codec            proton.Codec
	MaxResponseBytes int64
	Logger           zerolog.Logger
}

// NewClient returns a client for baseURL using http.DefaultClient.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		HTTPClient:       http.DefaultClient,
		MaxResponseBytes: DefaultMaxResponseBytes,
		Logger:           zerolog.Nop(),
	}
}

// Post sends v to path and decodes the reply.
func (c *Client) Post(ctx context.Context, path string, v proton.Value) (proton.Value, error) {
	msg, err := c.Codec.Encode(v)
	if err != nil {
		return proton.Value{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(msg))
	if err != nil {
		return proton.Value{}, err
	}
	req.Header.Set("Content-Type", ContentType)
	return c.do(req)
}

// Get requests path with query and decodes the reply.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (proton.Value, error) {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return proton.Value{}, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (proton.Value, error) {
	req.Header.Set("Accept", ContentType)
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	resp, err := hc.Do(req)
	if err != nil {
		return proton.Value{}, err
	}
	defer resp.Body.Close()

	c.Logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Msg("proton exchange")

	body, err := readBody(resp.Body, limit)
	if err != nil {
		return proton.Value{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return proton.Value{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if !isProtonContentType(resp.Header.Get("Content-Type")) {
		return proton.Value{}, fmt.Errorf("%w: %q", ErrContentType, resp.Header.Get("Content-Type"))
	}
	return c.Codec.Decode(body)
}
