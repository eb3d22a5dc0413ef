package geosearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mapshare_backend/platform/logger"

	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	defaultUserAgent    = "ShareableMaps/1.0"
	defaultTimeout      = 5 * time.Second

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// Provider is an external geocoder. Implementations make exactly one
// upstream round trip per call.
type Provider interface {
	Search(ctx context.Context, q ProviderQuery) ([]Place, error)
}

// Config is the configuration the Nominatim client needs.
type Config interface {
	GetNominatimURL() string
	GetNominatimUserAgent() string
	GetGeocoderTimeout() time.Duration
}

// NominatimClient queries an OpenStreetMap Nominatim search endpoint.
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[[]Place]
	log       *logger.Logger
}

// NewNominatimClient creates a client guarded by a circuit breaker. After
// repeated failures the breaker fails searches fast without contacting the
// upstream until it half-opens again.
func NewNominatimClient(cfg Config, log *logger.Logger) *NominatimClient {
	baseURL := cfg.GetNominatimURL()
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	userAgent := cfg.GetNominatimUserAgent()
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.GetGeocoderTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &NominatimClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]Place](gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		// A caller abandoning its search says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

var _ Provider = (*NominatimClient)(nil)

// Search runs one Nominatim query.
func (c *NominatimClient) Search(ctx context.Context, q ProviderQuery) ([]Place, error) {
	places, err := c.breaker.Execute(func() ([]Place, error) {
		return c.do(ctx, q)
	})
	if err == nil {
		return places, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return nil, perr
	}
	// Open or half-open breaker rejected the call.
	return nil, &ProviderError{Err: err}
}

func (c *NominatimClient) do(ctx context.Context, q ProviderQuery) ([]Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(q), nil)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var places []Place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return places, nil
}

func (c *NominatimClient) requestURL(q ProviderQuery) string {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("addressdetails", "1")
	params.Set("extratags", "1")
	if q.Viewbox != nil {
		params.Set("viewbox", fmt.Sprintf("%s,%s,%s,%s",
			formatCoord(q.Viewbox.Left), formatCoord(q.Viewbox.Top),
			formatCoord(q.Viewbox.Right), formatCoord(q.Viewbox.Bottom)))
		params.Set("bounded", "0")
	}
	return c.baseURL + "?" + params.Encode()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
