package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"mapshare_backend/internal/events"
	"mapshare_backend/internal/maps/access"
	"mapshare_backend/internal/maps/repository"
	"mapshare_backend/internal/maps/transport"
	"mapshare_backend/platform/apperr"
	"mapshare_backend/platform/logger"

	"github.com/google/uuid"
)

type memRepo struct {
	mu   sync.Mutex
	maps map[uuid.UUID]repository.Map
	tick time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{maps: make(map[uuid.UUID]repository.Map), tick: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memRepo) next() time.Time {
	r.tick = r.tick.Add(time.Minute)
	return r.tick
}

func (r *memRepo) Create(_ context.Context, p repository.CreateParams) (repository.Map, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.next()
	m := repository.Map{
		ID: uuid.New(), OwnerID: p.OwnerID, Title: p.Title, Description: p.Description,
		MainLocation: p.MainLocation, Tags: p.Tags,
		Share:     access.Settings{Type: access.ShareTypePrivate},
		CreatedAt: now, UpdatedAt: now,
	}
	r.maps[m.ID] = m
	return m, nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Map, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.maps[id]
	if !ok {
		return repository.Map{}, apperr.NotFound("map not found")
	}
	return m, nil
}

func (r *memRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]repository.Map, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.Map
	for _, m := range r.maps {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memRepo) Stats(_ context.Context, ownerID uuid.UUID) (repository.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s repository.Stats
	for _, m := range r.maps {
		if m.OwnerID != ownerID {
			continue
		}
		s.TotalMaps++
		if m.Share.Enabled && m.Share.Type != access.ShareTypePrivate {
			s.SharedMaps++
		}
		s.TotalViews += m.Views
		s.TotalLikes += m.Likes
	}
	return s, nil
}

func (r *memRepo) Update(_ context.Context, p repository.UpdateParams) (repository.Map, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.maps[p.ID]
	if !ok || m.OwnerID != p.OwnerID {
		return repository.Map{}, apperr.NotFound("map not found")
	}
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = p.Description
	}
	if p.TagsSet {
		m.Tags = p.Tags
	}
	if p.MainLocation != nil || p.ClearLocation {
		m.MainLocation = p.MainLocation
	}
	m.UpdatedAt = r.next()
	r.maps[m.ID] = m
	return m, nil
}

func (r *memRepo) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.maps[id]
	if !ok || m.OwnerID != ownerID {
		return apperr.NotFound("map not found")
	}
	delete(r.maps, id)
	return nil
}

func (r *memRepo) UpdateShareSettings(_ context.Context, id, ownerID uuid.UUID, settings access.Settings) (repository.Map, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.maps[id]
	if !ok || m.OwnerID != ownerID {
		return repository.Map{}, apperr.NotFound("map not found")
	}
	if settings.Type != access.ShareTypePassword {
		settings.SecretHash = ""
	}
	m.Share = settings
	m.UpdatedAt = r.next()
	r.maps[id] = m
	return m, nil
}

func (r *memRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.maps[id]
	if !ok {
		return apperr.NotFound("map not found")
	}
	m.Views++
	r.maps[id] = m
	return nil
}

type stubMarkers struct {
	markers []transport.SharedMarker
	err     error
	calls   int
}

func (s *stubMarkers) ListForSharedMap(_ context.Context, _ uuid.UUID, _ transport.MarkerFilter) ([]transport.SharedMarker, error) {
	s.calls++
	return s.markers, s.err
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
	syncErr   error
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return b.syncErr
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

type testConfig struct{}

func (testConfig) GetAppBaseURL() string { return "https://maps.example.com/" }

func newTestService(t *testing.T) (*Service, *memRepo, *recordingBus) {
	t.Helper()
	repo := newMemRepo()
	bus := &recordingBus{}
	svc := New(repo, bus, testConfig{}, logger.NewWriter("test", io.Discard))
	return svc, repo, bus
}

func strPtr(s string) *string { return &s }

func TestCreateStartsPrivate(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()

	m, err := svc.Create(context.Background(), owner, transport.CreateMapRequest{Title: "  Lisbon  ", Tags: transport.Tags{"food"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Title != "Lisbon" {
		t.Fatalf("expected trimmed title, got %q", m.Title)
	}
	if m.ShareSettings.ShareType != "private" || m.ShareSettings.IsEnabled {
		t.Fatalf("expected private disabled map, got %+v", m.ShareSettings)
	}
	if m.ShareSettings.ShareURL != "https://maps.example.com/shared/"+m.ID.String() {
		t.Fatalf("unexpected share url %q", m.ShareSettings.ShareURL)
	}
}

func TestGetHidesOtherUsersMaps(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	m, _ := svc.Create(context.Background(), owner, transport.CreateMapRequest{Title: "Mine"})

	_, err := svc.Get(context.Background(), uuid.New(), m.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.RequireOwner(context.Background(), owner, m.ID); err != nil {
		t.Fatalf("owner check: %v", err)
	}
}

func TestListNewestUpdatedFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	first, _ := svc.Create(context.Background(), owner, transport.CreateMapRequest{Title: "First"})
	_, _ = svc.Create(context.Background(), owner, transport.CreateMapRequest{Title: "Second"})
	if _, err := svc.Update(context.Background(), owner, first.ID, transport.UpdateMapRequest{Description: strPtr("edited")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := svc.List(context.Background(), owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 2 || list.Items[0].ID != first.ID {
		t.Fatalf("expected edited map first, got %+v", list.Items)
	}
}

func TestUpdateRejectsBlankTitle(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	m, _ := svc.Create(context.Background(), owner, transport.CreateMapRequest{Title: "Title"})

	_, err := svc.Update(context.Background(), owner, m.ID, transport.UpdateMapRequest{Title: strPtr("   ")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeletePublishesMapDeleted(t *testing.T) {
	svc, repo, bus := newTestService(t)
	owner := uuid.New()
	m, _ := svc.Create(context.Background(), owner, transport.CreateMapRequest{Title: "Gone"})

	if err := svc.Delete(context.Background(), uuid.New(), m.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for foreign delete, got %v", err)
	}
	if got := bus.names(); len(got) != 0 {
		t.Fatalf("expected no events, got %v", got)
	}

	bus.syncErr = errors.New("cascade failed")
	if err := svc.Delete(context.Background(), owner, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.maps[m.ID]; ok {
		t.Fatalf("map still stored")
	}
	if got := bus.names(); len(got) != 1 || got[0] != "maps.map.deleted" {
		t.Fatalf("expected maps.map.deleted, got %v", got)
	}
}

func TestUpdateShareSettingsPasswordRules(t *testing.T) {
	svc, repo, _ := newTestService(t)
	owner := uuid.New()
	m, _ := svc.Create(context.Background(), owner, transport.CreateMapRequest{Title: "Secret"})
	ctx := context.Background()

	_, err := svc.UpdateShareSettings(ctx, owner, m.ID, transport.UpdateShareSettingsRequest{ShareType: "password", IsEnabled: true})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected password required, got %v", err)
	}

	_, err = svc.UpdateShareSettings(ctx, owner, m.ID, transport.UpdateShareSettingsRequest{ShareType: "password", Password: strPtr("abc"), IsEnabled: true})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected short password rejected, got %v", err)
	}

	res, err := svc.UpdateShareSettings(ctx, owner, m.ID, transport.UpdateShareSettingsRequest{ShareType: "password", Password: strPtr("abc123"), IsEnabled: true})
	if err != nil {
		t.Fatalf("set password: %v", err)
	}
	if !res.HasPassword || !res.IsEnabled {
		t.Fatalf("expected enabled password map, got %+v", res)
	}
	hash := repo.maps[m.ID].Share.SecretHash
	if hash == "" || hash == "abc123" {
		t.Fatalf("expected hashed secret, got %q", hash)
	}

	// No new password keeps the existing secret.
	if _, err := svc.UpdateShareSettings(ctx, owner, m.ID, transport.UpdateShareSettingsRequest{ShareType: "password", IsEnabled: true}); err != nil {
		t.Fatalf("keep password: %v", err)
	}
	if repo.maps[m.ID].Share.SecretHash != hash {
		t.Fatalf("expected secret to be kept")
	}

	res, err = svc.UpdateShareSettings(ctx, owner, m.ID, transport.UpdateShareSettingsRequest{ShareType: "public", IsEnabled: true})
	if err != nil {
		t.Fatalf("set public: %v", err)
	}
	if res.HasPassword || repo.maps[m.ID].Share.SecretHash != "" {
		t.Fatalf("expected secret cleared when leaving password mode")
	}

	res, err = svc.UpdateShareSettings(ctx, owner, m.ID, transport.UpdateShareSettingsRequest{ShareType: "private", IsEnabled: true})
	if err != nil {
		t.Fatalf("set private: %v", err)
	}
	if res.IsEnabled {
		t.Fatalf("private maps must be stored disabled")
	}
}

func TestShareQRCodeIsPNG(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	m, _ := svc.Create(context.Background(), owner, transport.CreateMapRequest{Title: "QR"})

	png, err := svc.ShareQRCode(context.Background(), owner, m.ID)
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("expected png bytes")
	}
	if _, err := svc.ShareQRCode(context.Background(), uuid.New(), m.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for foreign map, got %v", err)
	}
}

func TestResolveSharedOutcomes(t *testing.T) {
	svc, _, bus := newTestService(t)
	markers := &stubMarkers{markers: []transport.SharedMarker{{ID: uuid.New(), Title: "Cafe"}}}
	svc.SetMarkerLister(markers)
	ctx := context.Background()
	owner := uuid.New()

	m, _ := svc.Create(ctx, owner, transport.CreateMapRequest{Title: "Shared"})

	view, err := svc.ResolveShared(ctx, m.ID, "", "192.0.2.1", transport.MarkerFilter{})
	if err != nil {
		t.Fatalf("resolve private: %v", err)
	}
	if view.Result.Outcome != access.OutcomeDenied || view.View != nil {
		t.Fatalf("expected denied private map without payload, got %+v", view)
	}

	if _, err := svc.UpdateShareSettings(ctx, owner, m.ID, transport.UpdateShareSettingsRequest{ShareType: "password", Password: strPtr("abc123"), IsEnabled: true}); err != nil {
		t.Fatalf("share: %v", err)
	}

	view, _ = svc.ResolveShared(ctx, m.ID, "", "192.0.2.1", transport.MarkerFilter{})
	if view.Result.Outcome != access.OutcomePasswordRequired || view.Result.Message != "" {
		t.Fatalf("expected first-visit password prompt, got %+v", view.Result)
	}

	view, _ = svc.ResolveShared(ctx, m.ID, "ABC123", "192.0.2.1", transport.MarkerFilter{})
	if view.Result.Outcome != access.OutcomePasswordRequired || view.Result.Message != access.MsgIncorrectPassword {
		t.Fatalf("expected incorrect password, got %+v", view.Result)
	}
	if len(bus.names()) != 0 {
		t.Fatalf("no view must be counted before access is granted")
	}

	view, err = svc.ResolveShared(ctx, m.ID, "abc123", "192.0.2.1", transport.MarkerFilter{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !view.Result.Granted() || view.View == nil {
		t.Fatalf("expected granted view, got %+v", view.Result)
	}
	if len(view.View.Markers) != 1 || view.View.Map.Title != "Shared" {
		t.Fatalf("unexpected payload %+v", view.View)
	}
	if got := bus.names(); len(got) != 1 || got[0] != "maps.map.viewed" {
		t.Fatalf("expected one maps.map.viewed event, got %v", got)
	}
}

func TestResolveSharedMissingMap(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.SetMarkerLister(&stubMarkers{})

	view, err := svc.ResolveShared(context.Background(), uuid.New(), "pw", "192.0.2.1", transport.MarkerFilter{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if view.Result.Reason != access.ReasonNotFound {
		t.Fatalf("expected not found, got %+v", view.Result)
	}
}

func TestResolveSharedMarkerFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.SetMarkerLister(&stubMarkers{err: errors.New("db down")})
	owner := uuid.New()
	ctx := context.Background()
	m, _ := svc.Create(ctx, owner, transport.CreateMapRequest{Title: "Broken"})

	view, err := svc.ResolveShared(ctx, m.ID, "", "192.0.2.1", transport.MarkerFilter{})
	if err != nil {
		t.Fatalf("expected private map to be denied without error, got %v", err)
	}
	if view.Result.Reason != access.ReasonPrivate || view.View != nil {
		t.Fatalf("expected private denial, got %+v", view.Result)
	}

	view, err = svc.ResolveShared(ctx, uuid.New(), "", "192.0.2.1", transport.MarkerFilter{})
	if err != nil || view.Result.Reason != access.ReasonNotFound {
		t.Fatalf("expected not found without error, got %+v, %v", view.Result, err)
	}

	if _, err := svc.UpdateShareSettings(ctx, owner, m.ID, transport.UpdateShareSettingsRequest{ShareType: "public", IsEnabled: true}); err != nil {
		t.Fatalf("share: %v", err)
	}
	if _, err := svc.ResolveShared(ctx, m.ID, "", "192.0.2.1", transport.MarkerFilter{}); err == nil {
		t.Fatalf("expected marker load error once access is granted")
	}
}

func TestStatsCountsSharedMaps(t *testing.T) {
	svc, repo, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()
	a, _ := svc.Create(ctx, owner, transport.CreateMapRequest{Title: "A"})
	_, _ = svc.Create(ctx, owner, transport.CreateMapRequest{Title: "B"})
	_, _ = svc.UpdateShareSettings(ctx, owner, a.ID, transport.UpdateShareSettingsRequest{ShareType: "public", IsEnabled: true})
	_ = svc.IncrementViews(ctx, a.ID)
	_ = svc.IncrementViews(ctx, a.ID)

	st, err := svc.Stats(ctx, owner)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalMaps != 2 || st.SharedMaps != 1 || st.TotalViews != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if repo.maps[a.ID].Views != 2 {
		t.Fatalf("expected two views stored")
	}
}
