package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type Client struct {
	BaseURL   string // e.g. https://api-fxpractice.oanda.com
	Token     string
	AccountID string
	HTTP      *http.Client
	Limiter   *rate.Limiter
}

// NewClient builds a client for env (practice|live) with OANDA's documented
// per-connection request rate.
func NewClient(env, token, accountID string) (*Client, error) {
	base, err := BaseURL(env)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("oanda: missing token")
	}
	if accountID == "" {
		return nil, fmt.Errorf("oanda: missing account id")
	}
	return &Client{
		BaseURL:   base,
		Token:     token,
		AccountID: accountID,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		Limiter:   rate.NewLimiter(rate.Limit(100), 20),
	}, nil
}

// BaseURL maps an environment name to the REST endpoint. Only read-only
// endpoints are used, so live accounts are accepted.
func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo":
		return "https://api-fxpractice.oanda.com", nil
	case "live":
		return "https://api-fxtrade.oanda.com", nil
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

func (c *Client) Get(ctx context.Context, path string, opts map[string]string) (io.ReadCloser, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path

	q := u.Query()
	for k, v := range opts {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept-Datetime-Format", "RFC3339")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp.Body, nil
}

// GetJSON decodes a successful response into out.
func (c *Client) GetJSON(ctx context.Context, path string, opts map[string]string, out any) error {
	body, err := c.Get(ctx, path, opts)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("oanda: decode %s: %w", path, err)
	}
	return nil
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("oanda http %d: %s", e.Status, e.Body)
}
