package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"storefront/client/internal/config"
	"storefront/client/internal/domain"
	"storefront/client/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// StorefrontClient is the backend REST API consumed by the cart engine.
type StorefrontClient interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	GetFrequentlyBought(ctx context.Context, productID string) ([]domain.BundleCandidate, error)
	ValidatePromoCode(ctx context.Context, req domain.PromoValidationRequest) (*domain.PromoValidation, error)
	AddToCart(ctx context.Context, productID string, quantity int) error
	GetCart(ctx context.Context) (*domain.Cart, error)
}

// APIError is a non-2xx answer of the storefront backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// Reason is the human readable explanation sent by the backend, if any.
func (e *APIError) Reason() string {
	return e.Detail
}

// errorPayload covers the error bodies the backend produces: {"detail": "..."},
// {"detail": [{"msg": "..."}]} for request validation, or {"message": "..."}.
type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (p *errorPayload) reason() string {
	if p == nil {
		return ""
	}

	if len(p.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(p.Detail, &detail); err == nil {
			return strings.TrimSpace(detail)
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(p.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	if p.Message != "" {
		return p.Message
	}
	return p.Error
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type storefrontClient struct {
	rl            ratelimit.Limiter
	config        config.StorefrontConfig
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier

	// Circuit breaker for 429 responses
	circuitBreakerMutex sync.RWMutex
	quotaExceededUntil  time.Time
	circuitBreakerDelay time.Duration
}

func NewStorefrontClient(cfg config.StorefrontConfig, proxySupplier proxy.ProxySupplier) StorefrontClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "storefront-client/1.0")

	if cfg.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})
	}
	if cfg.AuthToken != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.AuthToken)
	}
	if cfg.CartSession != "" {
		client.SetHeader("X-Cart-Session", cfg.CartSession)
	}

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	cooldown := time.Duration(cfg.CircuitBreakerCooldown) * time.Second
	if cooldown <= 0 {
		cooldown = time.Minute
	}

	return &storefrontClient{
		rl:                  rl,
		config:              cfg,
		httpClient:          client,
		proxySupplier:       proxySupplier,
		circuitBreakerDelay: cooldown,
	}
}

func (c *storefrontClient) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	path := "/products/" + url.PathEscape(productID)

	if err := c.do(ctx, http.MethodGet, path, nil, &product); err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", productID, err)
	}

	log.Debugf("Fetched product %s (%s)", product.ID, product.Name)
	return &product, nil
}

func (c *storefrontClient) GetFrequentlyBought(ctx context.Context, productID string) ([]domain.BundleCandidate, error) {
	var candidates []domain.BundleCandidate
	path := "/products/" + url.PathEscape(productID) + "/frequently-bought"

	if err := c.do(ctx, http.MethodGet, path, nil, &candidates); err != nil {
		return nil, fmt.Errorf("failed to fetch bundle candidates for %s: %w", productID, err)
	}

	log.Debugf("Fetched %d bundle candidates for %s", len(candidates), productID)
	return candidates, nil
}

func (c *storefrontClient) ValidatePromoCode(ctx context.Context, req domain.PromoValidationRequest) (*domain.PromoValidation, error) {
	var result domain.PromoValidation

	if err := c.do(ctx, http.MethodPost, "/promo-codes/validate", req, &result); err != nil {
		return nil, fmt.Errorf("failed to validate promo code %s: %w", req.Code, err)
	}

	return &result, nil
}

func (c *storefrontClient) AddToCart(ctx context.Context, productID string, quantity int) error {
	body := addToCartRequest{ProductID: productID, Quantity: quantity}

	if err := c.do(ctx, http.MethodPost, "/cart/items", body, nil); err != nil {
		return fmt.Errorf("failed to add %s to cart: %w", productID, err)
	}
	return nil
}

func (c *storefrontClient) GetCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart

	if err := c.do(ctx, http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	return &cart, nil
}

func (c *storefrontClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	open := now.Before(c.quotaExceededUntil)
	triggered := !c.quotaExceededUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !open && triggered {
		c.circuitBreakerMutex.Lock()
		if !c.quotaExceededUntil.IsZero() && now.After(c.quotaExceededUntil) {
			c.quotaExceededUntil = time.Time{}
			log.Infof("✅ Circuit breaker closed - requests are allowed again")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return open
}

func (c *storefrontClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.quotaExceededUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Requests disabled until %v",
		c.quotaExceededUntil.Format("15:04:05"))
}

func (c *storefrontClient) remainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.quotaExceededUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// do sends one request and decodes a 2xx body into result (when non-nil).
func (c *storefrontClient) do(ctx context.Context, method, path string, body, result any) error {
	if c.isCircuitBreakerOpen() {
		remaining := c.remainingCircuitBreakerTime().Round(time.Second)
		return fmt.Errorf("%w: requests disabled for %v more", ErrCircuitOpen, remaining)
	}

	c.rl.Take()

	resp, err := c.send(ctx, method, path, body, result)
	if err == nil && resp.StatusCode() == http.StatusTooManyRequests {
		log.Warnf("🚫 Rate limit exceeded for %s %s", method, path)

		retried := false
		if c.proxySupplier != nil {
			if newProxy := c.proxySupplier.Get(); newProxy != "" {
				log.Infof("🔄 Switching to new proxy: %s", newProxy)
				c.httpClient.SetProxy(newProxy)
				resp, err = c.send(ctx, method, path, body, result)
				retried = true
			}
		}

		if !retried || (err == nil && resp.StatusCode() == http.StatusTooManyRequests) {
			c.triggerCircuitBreaker()
		}
	}

	if resp != nil && resp.IsError() {
		apiErr := &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
		}
		if payload, ok := resp.Error().(*errorPayload); ok {
			apiErr.Detail = payload.reason()
		}
		return apiErr
	}

	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	return nil
}

func (c *storefrontClient) send(ctx context.Context, method, path string, body, result any) (*resty.Response, error) {
	req := c.httpClient.R().
		SetContext(ctx).
		SetError(&errorPayload{})

	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	return req.Execute(method, path)
}
