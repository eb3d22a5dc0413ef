package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mapshare_backend/internal/geosearch"
	apphttp "mapshare_backend/internal/http"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/ratelimit"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testConfig struct {
	trustedProxies []string
}

func (testConfig) GetHTTPAddr() string           { return ":0" }
func (testConfig) GetCORSAllowAll() bool         { return false }
func (testConfig) GetCORSOrigins() []string      { return []string{"http://localhost:3000"} }
func (testConfig) GetCORSAllowCreds() bool       { return false }
func (c testConfig) GetTrustedProxies() []string { return c.trustedProxies }
func (testConfig) GetJWTAccessSecret() string    { return "test-secret" }

type countingProvider struct {
	calls int
}

func (p *countingProvider) Search(context.Context, geosearch.ProviderQuery) ([]geosearch.Place, error) {
	p.calls++
	return nil, nil
}

// passwordModule mounts a stand-in for the shared access endpoint behind
// the router's shared access limiter.
type passwordModule struct{}

func (passwordModule) Name() string { return "password" }

func (passwordModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/shared/:id/access", ctx.SharedAccessLimiter.RateLimit(), func(c *gin.Context) {
		c.Status(http.StatusUnauthorized)
	})
}

func newTestEngine(cfg testConfig, provider *countingProvider) *gin.Engine {
	log := logger.NewWriter("test", io.Discard)
	search := geosearch.NewModule(provider, ratelimit.NewMemory(time.Second, 100), log)
	return New(&apphttp.App{
		Config:  cfg,
		Logger:  log,
		Modules: []apphttp.Module{search, passwordModule{}},
	})
}

func send(engine *gin.Engine, method, target, forwardedFor string) int {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "203.0.113.7:4000"
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec.Code
}

func TestSearchLimitKeysOnPeerAddressByDefault(t *testing.T) {
	provider := &countingProvider{}
	engine := newTestEngine(testConfig{}, provider)

	if code := send(engine, http.MethodGet, "/api/search/poi?q=park", "1.1.1.1"); code != http.StatusOK {
		t.Fatalf("expected first search 200, got %d", code)
	}
	if code := send(engine, http.MethodGet, "/api/search/poi?q=park", "2.2.2.2"); code != http.StatusTooManyRequests {
		t.Fatalf("expected spoofed X-Forwarded-For to be limited, got %d", code)
	}
	if provider.calls != 1 {
		t.Fatalf("expected one provider call, got %d", provider.calls)
	}
}

func TestSearchLimitHonorsForwardedForFromTrustedProxy(t *testing.T) {
	provider := &countingProvider{}
	engine := newTestEngine(testConfig{trustedProxies: []string{"203.0.113.0/24"}}, provider)

	for _, client := range []string{"1.1.1.1", "2.2.2.2"} {
		if code := send(engine, http.MethodGet, "/api/search/poi?q=park", client); code != http.StatusOK {
			t.Fatalf("expected search from %s to pass, got %d", client, code)
		}
	}
	if code := send(engine, http.MethodGet, "/api/search/poi?q=park", "1.1.1.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected repeat client to be limited, got %d", code)
	}
}

func TestSharedAccessLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	engine := newTestEngine(testConfig{}, &countingProvider{})

	var codes []int
	for _, client := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4", "5.5.5.5", "6.6.6.6"} {
		codes = append(codes, send(engine, http.MethodPost, "/api/v1/shared/abc/access", client))
	}

	for i, code := range codes[:5] {
		if code != http.StatusUnauthorized {
			t.Fatalf("expected attempt %d to reach the handler, got %d", i+1, code)
		}
	}
	if codes[5] != http.StatusTooManyRequests {
		t.Fatalf("expected sixth attempt to be limited, got %d", codes[5])
	}
}

func TestInvalidTrustedProxiesTrustNobody(t *testing.T) {
	provider := &countingProvider{}
	engine := newTestEngine(testConfig{trustedProxies: []string{"not-an-ip"}}, provider)

	_ = send(engine, http.MethodGet, "/api/search/poi?q=park", "1.1.1.1")
	if code := send(engine, http.MethodGet, "/api/search/poi?q=park", "2.2.2.2"); code != http.StatusTooManyRequests {
		t.Fatalf("expected limit on peer address, got %d", code)
	}
}
