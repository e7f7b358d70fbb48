package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"hotel_scout/internal/adapters/observability"
	"hotel_scout/internal/domain"
)

const rateCacheKey = "currency:usd_rub:rate"

// Client converts USD amounts to the display currency via an apilayer-style
// endpoint. The per-unit rate is memoized in the cache so a page of results
// costs at most one upstream call.
type Client struct {
	base   string
	key    string
	hc     *http.Client
	cache  domain.Cache
	ttlSec int
	rl     *rate.Limiter
}

func New(base, key string, cache domain.Cache, ttl time.Duration) *Client {
	return &Client{
		base:   base,
		key:    key,
		hc:     &http.Client{Timeout: 10 * time.Second},
		cache:  cache,
		ttlSec: int(ttl.Seconds()),
		rl:     rate.NewLimiter(rate.Limit(2), 2),
	}
}

type convertResponse struct {
	Success bool    `json:"success"`
	Result  float64 `json:"result"`
}

func (c *Client) Convert(ctx context.Context, amount float64) (float64, error) {
	if c.key == "" {
		return 0, domain.ErrConversionUnavailable
	}

	var unit float64
	if c.cache != nil {
		if ok, _ := c.cache.Get(ctx, rateCacheKey, &unit); ok && unit > 0 {
			return domain.Round2(amount * unit), nil
		}
	}

	unit, err := c.fetchUnitRate(ctx)
	if err != nil {
		return 0, err
	}
	if c.cache != nil {
		_ = c.cache.Set(ctx, rateCacheKey, unit, c.ttlSec)
	}
	return domain.Round2(amount * unit), nil
}

func (c *Client) fetchUnitRate(ctx context.Context) (float64, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return 0, err
	}
	u := fmt.Sprintf("%s/convert?to=RUB&from=USD&amount=1", c.base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", c.key)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("currency", "convert", 0, time.Since(start))
		return 0, domain.ErrConversionUnavailable
	}
	defer resp.Body.Close()
	observability.ObserveExternal("currency", "convert", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return 0, domain.ErrConversionUnavailable
	}
	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || !out.Success || out.Result <= 0 {
		return 0, domain.ErrConversionUnavailable
	}
	return out.Result, nil
}
