// Package feed fetches the live price of the watched asset
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL  = "https://api.coingecko.com/api/v3"
	DefaultCoin     = "bitcoin"
	DefaultCurrency = "usd"
	DefaultTimeout  = 10 * time.Second

	maxBodySize = 1 << 20
)

// CoinGecko reads quotes from the CoinGecko simple/price endpoint
type CoinGecko struct {
	baseURL  string
	coin     string
	currency string
	client   *http.Client
	now      func() time.Time
}

// Option configures a CoinGecko client
type Option func(*CoinGecko)

// WithBaseURL overrides the API root, mainly for tests and proxies
func WithBaseURL(baseURL string) Option {
	return func(c *CoinGecko) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAsset sets the CoinGecko coin id and the quote currency
func WithAsset(coin, currency string) Option {
	return func(c *CoinGecko) {
		c.coin = coin
		c.currency = currency
	}
}

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) Option {
	return func(c *CoinGecko) {
		c.client = client
	}
}

// WithTimeout bounds a single request; zero keeps the default
func WithTimeout(timeout time.Duration) Option {
	return func(c *CoinGecko) {
		if timeout > 0 {
			c.client = &http.Client{Timeout: timeout}
		}
	}
}

// NewCoinGecko creates a price feed for bitcoin/usd unless configured otherwise
func NewCoinGecko(options ...Option) *CoinGecko {
	c := &CoinGecko{
		baseURL:  DefaultBaseURL,
		coin:     DefaultCoin,
		currency: DefaultCurrency,
		client:   &http.Client{Timeout: DefaultTimeout},
		now:      time.Now,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Currency returns the quote currency
func (c *CoinGecko) Currency() string {
	return c.currency
}

// LastQuote issues one GET and returns the current price.
// Every failure wraps core.ErrFeedUnavailable.
func (c *CoinGecko) LastQuote(ctx context.Context) (core.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return core.Quote{}, fmt.Errorf("%w: create request: %v", core.ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return core.Quote{}, fmt.Errorf("%w: %v", core.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return core.Quote{}, fmt.Errorf("%w: read body: %v", core.ErrFeedUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.Quote{}, fmt.Errorf("%w: unexpected status %d: %s",
			core.ErrFeedUnavailable, resp.StatusCode, truncate(body, 256))
	}

	value, err := c.parse(body)
	if err != nil {
		return core.Quote{}, err
	}

	return core.Quote{Value: value, FetchedAt: c.now()}, nil
}

// parse extracts {"<coin>": {"<currency>": <number>}}
func (c *CoinGecko) parse(body []byte) (float64, error) {
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("%w: malformed body", core.ErrFeedUnavailable)
	}

	field := gjson.GetBytes(body, c.coin).Get(c.currency)
	if field.Type != gjson.Number {
		return 0, fmt.Errorf("%w: missing %s.%s in response", core.ErrFeedUnavailable, c.coin, c.currency)
	}

	value := field.Float()
	if err := core.ValidatePrice(value); err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrFeedUnavailable, err)
	}

	return value, nil
}

func (c *CoinGecko) endpoint() string {
	query := url.Values{}
	query.Set("ids", c.coin)
	query.Set("vs_currencies", c.currency)
	return c.baseURL + "/simple/price?" + query.Encode()
}

func truncate(body []byte, size int) string {
	if len(body) > size {
		body = body[:size]
	}
	return string(body)
}
