package fakestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL              = "https://fakestoreapi.com"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

// ErrNotFound is returned by GetProduct when the catalog has no product for the id.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")

// Client talks to a fakestoreapi-compatible product catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a catalog client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog base url must be absolute, got %q", baseURL)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Product mirrors the catalog's product payload.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      *Rating         `json:"rating,omitempty"`
}

type Rating struct {
	Rate  decimal.Decimal `json:"rate"`
	Count int             `json:"count"`
}

// ListProducts returns the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "products", "list products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListProductsByCategory returns the products filed under category.
func (c *Client) ListProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	if strings.TrimSpace(category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	var products []Product
	path := "products/category/" + url.PathEscape(category)
	if err := c.getJSON(ctx, path, "list category "+category, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListCategories returns every category name known to the catalog.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, "products/categories", "list categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetProduct fetches a single product. The upstream answers unknown ids with an
// empty 200 body, which is mapped to ErrNotFound alongside a plain 404.
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	body, status, err := c.get(ctx, "products/"+strconv.Itoa(id), "get product")
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, statusError("get product", status, body)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNotFound
	}
	var product Product
	if err := json.Unmarshal(trimmed, &product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product response")
	}
	if product.ID == 0 {
		return nil, ErrNotFound
	}
	return &product, nil
}

func (c *Client) getJSON(ctx context.Context, path, op string, dest any) error {
	body, status, err := c.get(ctx, path, op)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(op, status, body)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+op+" response")
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, op string) ([]byte, int, error) {
	if c == nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+op+" request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+op+" response")
	}
	return body, resp.StatusCode, nil
}

func statusError(op string, status int, body []byte) error {
	msg := body
	if int64(len(msg)) > responseBodyReadLimit {
		msg = msg[:responseBodyReadLimit]
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(msg))), op+" request failed")
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}
