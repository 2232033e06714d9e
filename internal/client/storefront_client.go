package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prudhivi99/storefront/internal/models"
)

// RemoteError is a non-2xx answer from a service. Message is the server's
// "error" field when it sent one.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// UserMessage is the text to show the shopper.
func (e *RemoteError) UserMessage() string {
	return e.Message
}

// StorefrontClient talks to the api-gateway on behalf of the storefront.
type StorefrontClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewStorefrontClient(baseURL string, timeout time.Duration) *StorefrontClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StorefrontClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchProducts lists the cart
func (c *StorefrontClient) FetchProducts(ctx context.Context) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := c.do(ctx, http.MethodGet, "/cart/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *StorefrontClient) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *StorefrontClient) AddToCart(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodPost, "/cart/items", models.AddToCartRequest{ProductID: productID}, nil)
}

func (c *StorefrontClient) UpdateQuantity(ctx context.Context, item models.CartItem) error {
	quantity := item.Quantity
	return c.do(ctx, http.MethodPatch, "/cart/items/"+url.PathEscape(item.ID), models.UpdateQuantityRequest{Quantity: &quantity}, nil)
}

// DeleteProducts removes cart lines, ignoring ids that are already gone
func (c *StorefrontClient) DeleteProducts(ctx context.Context, ids []string) error {
	return c.do(ctx, http.MethodDelete, "/cart/items", models.DeleteItemsRequest{IDs: ids}, nil)
}

// DeleteSelectedProducts removes cart lines and fails unless all of them exist
func (c *StorefrontClient) DeleteSelectedProducts(ctx context.Context, ids []string) error {
	return c.do(ctx, http.MethodDelete, "/cart/items/selected", models.DeleteItemsRequest{IDs: ids}, nil)
}

func (c *StorefrontClient) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *StorefrontClient) CancelOrder(ctx context.Context, orderID int) error {
	body := models.UpdateOrderStatusRequest{Status: models.OrderStatusCancelled}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%d/status", orderID), body, nil)
}

func (c *StorefrontClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		payload.Error = http.StatusText(resp.StatusCode)
	}
	return &RemoteError{StatusCode: resp.StatusCode, Message: payload.Error}
}
