package alias

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

// Client handles communication with the Alias (GOAT) marketplace API. It is
// the secondary source: consignment pricing and recent sales come from
// here. All outbound requests go through the shared executor.
type Client struct {
	httpClient *http.Client
	apiToken   string
	baseURL    string
	exec       *executor.Executor
	debug      bool
	now        func() time.Time
}

// NewClient creates a new Alias API client
func NewClient(apiToken, baseURL string, timeout time.Duration, exec *executor.Executor, debug bool) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiToken: apiToken,
		baseURL:  baseURL,
		exec:     exec,
		debug:    debug,
		now:      time.Now,
	}
}

// Name identifies this source in match results and logs
func (c *Client) Name() domain.Source {
	return domain.SourceAlias
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "KickCheck/1.0")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

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

// Search queries the Alias catalog and returns the top candidate products
func (c *Client) Search(ctx context.Context, query string) ([]domain.CandidateProduct, error) {
	if c.debug {
		log.Printf("[ALIAS] Search called with query: %q", query)
	}

	endpoint := fmt.Sprintf("%s/catalog/search", c.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("limit", "10")

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	key := executor.CacheKey("alias", "search", query)

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

	if len(searchResp.Hits) == 0 {
		if c.debug {
			log.Printf("[ALIAS] No products found for query: %q", query)
		}
		return nil, domain.ErrProductNotFound
	}

	if c.debug {
		log.Printf("[ALIAS] Found %d products for query: %q", len(searchResp.Hits), query)
	}
	return mapCatalogHits(searchResp.Hits), nil
}

// GetVariants retrieves the available sizes for a product. Alias keys
// market lookups by size presentation rather than an opaque variant id, so
// the presentation string doubles as the variant ID.
func (c *Client) GetVariants(ctx context.Context, productID string) ([]domain.SizeVariant, error) {
	reqURL := fmt.Sprintf("%s/products/%s/sizes", c.baseURL, productID)
	key := executor.CacheKey("alias", "sizes", productID)

	body, err := c.exec.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	var sizesResp sizesResponse
	if err := json.Unmarshal(body, &sizesResp); err != nil {
		return nil, fmt.Errorf("failed to decode sizes response: %w", err)
	}

	mapped := mapSizes(sizesResp.Sizes)
	if c.debug {
		log.Printf("[ALIAS] Product %s has %d parseable sizes", productID, len(mapped))
	}
	return mapped, nil
}

// GetMarketData retrieves consignment pricing for both listing channels
// plus the recent sales history for one size. The three calls are
// independently best-effort: a channel that 404s just leaves its fields
// empty, matching the per-item partial failure policy.
func (c *Client) GetMarketData(ctx context.Context, productID string, variant domain.SizeVariant) (*domain.MarketSnapshot, error) {
	consigned, errConsigned := c.fetchAvailability(ctx, productID, variant.ID, true)
	withYou, errWithYou := c.fetchAvailability(ctx, productID, variant.ID, false)
	sales, errSales := c.fetchRecentSales(ctx, productID, variant.ID)

	hardErrs := collectHardErrors(errConsigned, errWithYou, errSales)
	if len(hardErrs) == 3 {
		return nil, hardErrs[0]
	}
	for _, err := range hardErrs {
		log.Printf("[ALIAS] Partial market data for %s size %s: %v", productID, variant.ID, err)
	}

	return buildSnapshot(consigned, withYou, sales, c.now()), nil
}

func (c *Client) fetchAvailability(ctx context.Context, productID, size string, consigned bool) (availabilityResponse, error) {
	endpoint := fmt.Sprintf("%s/products/%s/availability", c.baseURL, productID)
	params := url.Values{}
	params.Add("size", size)
	params.Add("consigned", fmt.Sprintf("%t", consigned))

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	key := executor.CacheKey("alias", "availability", productID, size, fmt.Sprintf("%t", consigned))

	body, err := c.exec.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, reqURL)
	})
	if err != nil {
		return availabilityResponse{}, err
	}

	var avail availabilityResponse
	if err := json.Unmarshal(body, &avail); err != nil {
		return availabilityResponse{}, fmt.Errorf("failed to decode availability response: %w", err)
	}
	return avail, nil
}

func (c *Client) fetchRecentSales(ctx context.Context, productID, size string) (recentSalesResponse, error) {
	endpoint := fmt.Sprintf("%s/products/%s/recent_sales", c.baseURL, productID)
	params := url.Values{}
	params.Add("size", size)
	params.Add("limit", "10")

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	key := executor.CacheKey("alias", "sales", productID, size)

	body, err := c.exec.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, reqURL)
	})
	if err != nil {
		return recentSalesResponse{}, err
	}

	var sales recentSalesResponse
	if err := json.Unmarshal(body, &sales); err != nil {
		return recentSalesResponse{}, fmt.Errorf("failed to decode recent sales response: %w", err)
	}
	return sales, nil
}

// productURL builds the public product page URL from a catalog slug
func productURL(slug string) string {
	if slug == "" {
		return ""
	}
	return fmt.Sprintf("https://www.goat.com/sneakers/%s", slug)
}

// collectHardErrors keeps the errors that are not a plain "nothing listed
// for this size" outcome
func collectHardErrors(errs ...error) []error {
	var hard []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errorsIsNotFound(err) {
			continue
		}
		hard = append(hard, err)
	}
	return hard
}
