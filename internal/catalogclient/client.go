package catalogclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/rocketshoes/internal/models"
)

var ErrNotFound = errors.New("not found")

// Client reads products and stock levels from the catalog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(catalogURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(catalogURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) GetStock(ctx context.Context, productID int) (models.Stock, error) {
	var stock models.Stock
	if err := c.get(ctx, "/stock/"+strconv.Itoa(productID), &stock); err != nil {
		return models.Stock{}, fmt.Errorf("get stock %d: %w", productID, err)
	}
	return stock, nil
}

func (c *Client) GetProduct(ctx context.Context, productID int) (models.Product, error) {
	var product models.Product
	if err := c.get(ctx, "/products/"+strconv.Itoa(productID), &product); err != nil {
		return models.Product{}, fmt.Errorf("get product %d: %w", productID, err)
	}
	return product, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
