package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	"github.com/cinalli-racing/lubricentro-backend/pkg/config"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

// Client is the HTTP implementation of Service against the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
}

func NewClient(cfg config.RemoteConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("remote base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing remote base url: %w", err)
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logg:    logg,
	}, nil
}

// envelope mirrors the backend's success wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health/live", nil, nil)
}

func (c *Client) FetchAllProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.do(ctx, http.MethodGet, "/api/v1/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) SubmitSale(ctx context.Context, sale catalog.Sale) (catalog.Sale, error) {
	// Temp ids never leave this process; the backend assigns the real one.
	payload := sale
	if catalog.HasTempID(payload.ID) {
		payload.ID = ""
	}
	var ack catalog.Sale
	if err := c.do(ctx, http.MethodPost, "/api/v1/sales", payload, &ack); err != nil {
		return catalog.Sale{}, err
	}
	return ack, nil
}

func (c *Client) SubmitPurchaseOrder(ctx context.Context, order catalog.PurchaseOrder) (catalog.PurchaseOrder, error) {
	payload := order
	if catalog.HasTempID(payload.ID) {
		payload.ID = ""
	}
	var ack catalog.PurchaseOrder
	if err := c.do(ctx, http.MethodPost, "/api/v1/purchase-orders", payload, &ack); err != nil {
		return catalog.PurchaseOrder{}, err
	}
	return ack, nil
}

func (c *Client) CreateProduct(ctx context.Context, product catalog.Product) (catalog.Product, error) {
	var created catalog.Product
	if err := c.do(ctx, http.MethodPost, "/api/v1/products", product, &created); err != nil {
		return catalog.Product{}, err
	}
	return created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, product catalog.Product) (catalog.Product, error) {
	var updated catalog.Product
	path := "/api/v1/products/" + url.PathEscape(product.ID)
	if err := c.do(ctx, http.MethodPut, path, product, &updated); err != nil {
		return catalog.Product{}, err
	}
	return updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp, method, path)
	}
	if dest == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decoding payload from %s: %w", path, err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response, method, path string) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Code != "" {
		return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Error.Message, apiErr.Error.Code)
	}
	return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
}
