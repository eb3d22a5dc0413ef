package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mapshare_backend/internal/events"
	apphttp "mapshare_backend/internal/http"
	"mapshare_backend/internal/maps/access"
	"mapshare_backend/internal/maps/repository"
	"mapshare_backend/internal/maps/transport"
	"mapshare_backend/platform/apperr"
	"mapshare_backend/platform/httpkit"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// readRepo serves only the reads the shared viewer needs.
type readRepo struct {
	repository.Repository
	maps  map[uuid.UUID]repository.Map
	views map[uuid.UUID]int
}

func (r *readRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Map, error) {
	m, ok := r.maps[id]
	if !ok {
		return repository.Map{}, apperr.NotFound("map not found")
	}
	return m, nil
}

func (r *readRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	r.views[id]++
	return nil
}

type noMarkers struct{}

func (noMarkers) ListForSharedMap(context.Context, uuid.UUID, transport.MarkerFilter) ([]transport.SharedMarker, error) {
	return []transport.SharedMarker{{ID: uuid.New(), Title: "Bakery", IconShape: "pin"}}, nil
}

type baseURL struct{}

func (baseURL) GetAppBaseURL() string { return "http://localhost:3000" }

type fixture struct {
	engine    *gin.Engine
	repo      *readRepo
	bus       *events.InMemoryBus
	public    uuid.UUID
	protected uuid.UUID
	private   uuid.UUID
}

func newFixture(t *testing.T, limiter *httpkit.IPRateLimiter) *fixture {
	t.Helper()
	log := logger.NewWriter("test", io.Discard)

	hash, err := access.HashSecret("abc123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	f := &fixture{
		repo:      &readRepo{maps: map[uuid.UUID]repository.Map{}, views: map[uuid.UUID]int{}},
		bus:       events.NewInMemoryBus(log),
		public:    uuid.New(),
		protected: uuid.New(),
		private:   uuid.New(),
	}
	f.repo.maps[f.public] = repository.Map{ID: f.public, Title: "Open", Tags: []string{}, Share: access.Settings{Type: access.ShareTypePublic, Enabled: true}}
	f.repo.maps[f.protected] = repository.Map{ID: f.protected, Title: "Locked", Tags: []string{}, Share: access.Settings{Type: access.ShareTypePassword, Enabled: true, SecretHash: hash}}
	f.repo.maps[f.private] = repository.Map{ID: f.private, Title: "Mine", Tags: []string{}, Share: access.Settings{Type: access.ShareTypePrivate}}

	module := NewModule(f.repo, f.bus, baseURL{}, validator.New(), log)
	module.Service().SetMarkerLister(noMarkers{})
	module.RegisterHandlers(f.bus)

	engine := gin.New()
	api := engine.Group("/api")
	v1 := api.Group("/v1")
	module.RegisterRoutes(&apphttp.RouterContext{
		Engine:              engine,
		API:                 api,
		V1:                  v1,
		Protected:           v1.Group(""),
		SharedAccessLimiter: limiter,
	})
	f.engine = engine
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestSharedPublicMapIsGrantedAndCounted(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/shared/"+f.public.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body transport.SharedMapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Map.Title != "Open" || len(body.Markers) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	if strings.Contains(rec.Body.String(), "shareSettings") {
		t.Fatalf("shared payload must not expose share settings")
	}

	f.bus.Wait()
	if f.repo.views[f.public] != 1 {
		t.Fatalf("expected one counted view, got %d", f.repo.views[f.public])
	}
}

func TestSharedPasswordFlow(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/v1/shared/" + f.protected.String()

	rec := f.do(http.MethodGet, path, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var denied transport.AccessDeniedResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &denied)
	if denied.Error != "password required" || !denied.RequiresPassword {
		t.Fatalf("unexpected first-visit body %+v", denied)
	}

	rec = f.do(http.MethodPost, path+"/access", `{"password":"ABC123"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &denied)
	if denied.Error != "incorrect password" {
		t.Fatalf("expected incorrect password, got %+v", denied)
	}

	rec = f.do(http.MethodPost, path+"/access", `{"password":"abc123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSharedPasswordIsIgnoredInQueryString(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/shared/"+f.protected.String()+"?password=abc123", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSharedDeniedAndMissing(t *testing.T) {
	f := newFixture(t, nil)

	if rec := f.do(http.MethodGet, "/api/v1/shared/"+f.private.String(), ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for private map, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/v1/shared/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing map, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/v1/shared/not-a-uuid", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", rec.Code)
	}
}

func TestSharedAccessAttemptsAreRateLimited(t *testing.T) {
	limiter := httpkit.NewIPRateLimiter(rate.Limit(0.001), 2, nil)
	f := newFixture(t, limiter)
	path := "/api/v1/shared/" + f.protected.String() + "/access"

	for i := 0; i < 2; i++ {
		if rec := f.do(http.MethodPost, path, `{"password":"nope"}`); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rec.Code)
		}
	}
	if rec := f.do(http.MethodPost, path, `{"password":"abc123"}`); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
