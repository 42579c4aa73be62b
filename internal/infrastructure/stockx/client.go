package stockx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/kickcheck/reconciler/internal/domain"
	"github.com/kickcheck/reconciler/internal/infrastructure/executor"
)

// Client handles communication with the StockX catalog API. All outbound
// requests go through the shared executor, which owns pacing, 429 retries
// and response caching.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	exec       *executor.Executor
	debug      bool
}

// NewClient creates a new StockX API client
func NewClient(apiKey, baseURL string, timeout time.Duration, exec *executor.Executor, debug bool) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:  apiKey,
		baseURL: baseURL,
		exec:    exec,
		debug:   debug,
	}
}

// Name identifies this source in match results and logs
func (c *Client) Name() domain.Source {
	return domain.SourceStockX
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "KickCheck/1.0")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status 429", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrProductNotFound
	default:
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrSourceUnavailable, resp.StatusCode, string(body))
	}
}

// Search queries the StockX catalog and returns the top candidate products
func (c *Client) Search(ctx context.Context, query string) ([]domain.CandidateProduct, error) {
	if c.debug {
		log.Printf("[STOCKX] Search called with query: %q", query)
	}

	endpoint := fmt.Sprintf("%s/catalog/search", c.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("pageSize", "10")

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	key := executor.CacheKey("stockx", "search", query)

	body, err := c.exec.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(searchResp.Products) == 0 {
		if c.debug {
			log.Printf("[STOCKX] No products found for query: %q", query)
		}
		return nil, domain.ErrProductNotFound
	}

	if c.debug {
		log.Printf("[STOCKX] Found %d products for query: %q", len(searchResp.Products), query)
	}
	return mapSearchProducts(searchResp.Products), nil
}

// GetVariants retrieves the size-variant list for a product
func (c *Client) GetVariants(ctx context.Context, productID string) ([]domain.SizeVariant, error) {
	reqURL := fmt.Sprintf("%s/catalog/products/%s/variants", c.baseURL, productID)
	key := executor.CacheKey("stockx", "variants", productID)

	body, err := c.exec.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	var variants []variantRecord
	if err := json.Unmarshal(body, &variants); err != nil {
		return nil, fmt.Errorf("failed to decode variants response: %w", err)
	}

	mapped := mapVariants(variants)
	if c.debug {
		log.Printf("[STOCKX] Product %s has %d parseable variants", productID, len(mapped))
	}
	return mapped, nil
}

// GetMarketData retrieves current bid/ask for a specific size variant
func (c *Client) GetMarketData(ctx context.Context, productID string, variant domain.SizeVariant) (*domain.MarketSnapshot, error) {
	endpoint := fmt.Sprintf("%s/catalog/products/%s/variants/%s/market-data", c.baseURL, productID, variant.ID)
	params := url.Values{}
	params.Add("currencyCode", "USD")

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	key := executor.CacheKey("stockx", "market", productID, variant.ID)

	body, err := c.exec.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	var market marketDataResponse
	if err := json.Unmarshal(body, &market); err != nil {
		return nil, fmt.Errorf("failed to decode market data response: %w", err)
	}

	snapshot := mapMarketData(market)
	if c.debug {
		log.Printf("[STOCKX] Market data for %s size %s: bid=%v ask=%v",
			productID, variant.ID, formatAmount(snapshot.Bid), formatAmount(snapshot.Ask))
	}
	return snapshot, nil
}

// ProductURL builds the public product page URL from a catalog url key
func ProductURL(urlKey string) string {
	if urlKey == "" {
		return ""
	}
	return fmt.Sprintf("https://stockx.com/%s", urlKey)
}

func formatAmount(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
