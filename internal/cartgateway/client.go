package cartgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/packlane/packlane-backend/internal/bundle"
	"github.com/packlane/packlane-backend/pkg/config"
	pkgerrors "github.com/packlane/packlane-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

// Client posts pack line items to the storefront cart service. Submission is
// all-or-nothing: the cart either accepts the full pack or reports an error.
type Client struct {
	httpClient *http.Client
	baseURL    string
	addPath    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the cart gateway from service configuration.
func NewClient(cfg config.CartServiceConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("cart service base URL is required")
	}
	addPath := strings.TrimSpace(cfg.AddPath)
	if addPath == "" {
		addPath = "/cart/add.js"
	}
	if !strings.HasPrefix(addPath, "/") {
		addPath = "/" + addPath
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		addPath:    addPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type addRequest struct {
	Items []bundle.CartLine `json:"items"`
}

type addResponse struct {
	ItemCount int `json:"item_count"`
}

// Submit pushes the pack's lines into the cart and returns the cart's total
// item count afterwards. Failures carry a dependency code so callers can keep
// the pack state intact and surface a retryable error.
func (c *Client) Submit(ctx context.Context, lines []bundle.CartLine) (int, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "cart gateway not configured")
	}
	if len(lines) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "no lines to submit")
	}

	payload, err := json.Marshal(addRequest{Items: lines})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal cart request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.addPath, bytes.NewReader(payload))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build cart request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute cart request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"cart request failed")
	}

	var decoded addResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&decoded); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart response")
	}
	return decoded.ItemCount, nil
}
