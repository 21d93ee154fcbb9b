// Package catalog reads the product list from the remote catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

const productsKey = "products"

type Client struct {
	baseURL    string
	httpClient *http.Client
	staleAfter time.Duration
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time

	sfg     singleflight.Group
	breaker *gobreaker.CircuitBreaker[[]domain.Product]

	mu        sync.RWMutex
	cached    []domain.Product
	fetchedAt time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func NewClient(baseURL string, staleAfter, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		staleAfter: staleAfter,
		timeout:    timeout,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]domain.Product](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// Products returns the catalog. A fresh cached copy is served without a
// request; concurrent refreshes share one fetch. When the fetch fails a stale
// copy is returned if there is one.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	if products, ok := c.fresh(); ok {
		return products, nil
	}

	ch := c.sfg.DoChan(productsKey, func() (interface{}, error) {
		return c.refresh(ctx)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch products: %w", ctx.Err())
	}

	if res.Err != nil {
		c.mu.RLock()
		stale := clone(c.cached)
		c.mu.RUnlock()
		if len(stale) > 0 {
			c.logger.Warn("catalog fetch failed, serving stale products", zap.Error(res.Err))
			return stale, nil
		}
		return nil, fmt.Errorf("fetch products: %w", res.Err)
	}

	return clone(res.Val.([]domain.Product)), nil
}

// refresh runs once per shared fetch. It is detached from the caller that
// started it so one cancelled caller does not fail the others.
func (c *Client) refresh(ctx context.Context) ([]domain.Product, error) {
	fetchCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(fetchCtx, c.timeout)
		defer cancel()
	}

	products, err := c.breaker.Execute(func() ([]domain.Product, error) {
		return c.fetch(fetchCtx)
	})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		products = MockProducts()
	}

	c.mu.Lock()
	c.cached = products
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return products, nil
}

func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// Invalidate drops the cached list so the next call refetches.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	c.fetchedAt = time.Time{}
}

func (c *Client) fresh() ([]domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cached == nil || c.now().Sub(c.fetchedAt) >= c.staleAfter {
		return nil, false
	}
	return clone(c.cached), true
}

// remoteProduct mirrors the catalog API payload, where numbers may carry
// fractions and createdAt is an ISO timestamp.
type remoteProduct struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Price              float64 `json:"price"`
	Category           string  `json:"category"`
	Stock              int     `json:"stock"`
	Rating             float64 `json:"rating"`
	DiscountPercentage float64 `json:"discountPercentage"`
	Image              string  `json:"image"`
	CreatedAt          string  `json:"createdAt"`
}

func (r remoteProduct) toDomain() domain.Product {
	p := domain.Product{
		ID:                 r.ID,
		Name:               r.Name,
		Description:        r.Description,
		Price:              decimal.NewFromFloat(r.Price).Round(0).IntPart(),
		Category:           r.Category,
		Stock:              r.Stock,
		Rating:             r.Rating,
		DiscountPercentage: r.DiscountPercentage,
		Image:              r.Image,
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	return p
}

func (c *Client) fetch(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var remote []remoteProduct
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(remote))
	for _, r := range remote {
		products = append(products, r.toDomain())
	}

	c.logger.Debug("catalog fetched", zap.Int("count", len(products)))
	return products, nil
}

func clone(products []domain.Product) []domain.Product {
	if products == nil {
		return nil
	}
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}
