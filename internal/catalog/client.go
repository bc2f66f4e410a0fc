package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/serome111/orderflow/internal/config"
	"github.com/serome111/orderflow/internal/logger"
	"github.com/serome111/orderflow/pkg/circuitbreaker"
	pkgerrors "github.com/serome111/orderflow/pkg/errors"
	"github.com/serome111/orderflow/pkg/metrics"
	"github.com/serome111/orderflow/pkg/retry"
)

// Attributes is the authoritative product data returned by the remote
// catalog for one product.
type Attributes struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
}

// Provider fetches catalog attributes for a set of product codes.
// Enrichment is atomic: either every requested code resolves, or the
// whole call fails with an error naming the offending code.
type Provider interface {
	FetchMany(ctx context.Context, codes []string) (map[string]Attributes, error)
}

var skuIDPattern = regexp.MustCompile(`(\d+)$`)

// Client resolves product codes against an HTTP catalog. The remote
// product id is taken from the trailing digits of the code (P001 -> 1).
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	policy  retry.Policy
	breaker *circuitbreaker.Wrapper
	logger  logger.Logger
}

func NewClient(cfg config.EnrichmentConfig, breaker *circuitbreaker.Wrapper, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	policy := retry.Policy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		Multiplier:      cfg.Retry.Multiplier,
	}
	if policy.MaxAttempts <= 0 {
		policy = retry.DefaultPolicy()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		policy:  policy,
		breaker: breaker,
		logger:  log,
	}
}

func (c *Client) FetchMany(ctx context.Context, codes []string) (map[string]Attributes, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveEnrichmentDuration(time.Since(start))
	}()

	unique := make(map[string]int64, len(codes))
	for _, code := range codes {
		if _, seen := unique[code]; seen {
			continue
		}
		productID, err := extractProductID(code)
		if err != nil {
			return nil, pkgerrors.ErrEnrichment.
				WithCause(err).
				WithDetail("product_code", code).
				WithDetail("message", err.Error())
		}
		unique[code] = productID
	}

	results := make(map[string]Attributes, len(unique))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for code, productID := range unique {
		code, productID := code, productID
		g.Go(func() error {
			attrs, err := c.fetchOne(gctx, productID)
			if err != nil {
				return pkgerrors.ErrEnrichment.
					WithCause(err).
					WithDetail("product_code", code).
					WithDetail("message", fmt.Sprintf("failed to fetch product %s", code))
			}
			mu.Lock()
			results[code] = attrs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchOne performs one catalog lookup with per-attempt timeout and
// exponential backoff on 429 and 5xx responses. Other HTTP failures
// stop the retry loop immediately.
func (c *Client) fetchOne(ctx context.Context, productID int64) (Attributes, error) {
	var attrs Attributes

	err := retry.RetryNotify(ctx, c.policy, func() error {
		attempt := func() (interface{}, error) {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			return c.doRequest(callCtx, productID)
		}

		var result interface{}
		var err error
		if c.breaker != nil {
			result, err = c.breaker.Execute(attempt)
		} else {
			result, err = attempt()
		}

		if err != nil {
			metrics.EnrichmentRequestsTotal.WithLabelValues("error").Inc()
			return err
		}

		metrics.EnrichmentRequestsTotal.WithLabelValues("success").Inc()
		attrs = result.(Attributes)
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		c.logger.WarnwCtx(ctx, "Catalog request failed, retrying",
			"product_id", productID,
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
		)
	})

	return attrs, err
}

func (c *Client) doRequest(ctx context.Context, productID int64) (Attributes, error) {
	url := fmt.Sprintf("%s/products/%d", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Attributes{}, retry.NewFatalError(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Attributes{}, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if isRetryableStatus(resp.StatusCode) {
		return Attributes{}, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Attributes{}, retry.NewFatalError(fmt.Errorf("catalog returned status %d", resp.StatusCode))
	}

	var attrs Attributes
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return Attributes{}, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return attrs, nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func extractProductID(code string) (int64, error) {
	match := skuIDPattern.FindStringSubmatch(code)
	if match == nil {
		return 0, fmt.Errorf("could not infer product id from code %q: the code must end with digits (e.g. P001)", code)
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse product id from code %q: %w", code, err)
	}
	return id, nil
}
