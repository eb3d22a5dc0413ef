package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"mapshare_backend/internal/events"
	"mapshare_backend/internal/maps/access"
	"mapshare_backend/internal/maps/repository"
	"mapshare_backend/internal/maps/transport"
	"mapshare_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"
)

const (
	minSharePasswordLength = 4
	qrCodeSize             = 256
)

// SharedView is the result of a shared-map access attempt. View is set only
// when access was granted.
type SharedView struct {
	Result access.Result
	View   *transport.SharedMapResponse
}

// GetShareSettings returns the owner's view of a map's share configuration.
func (s *Service) GetShareSettings(ctx context.Context, ownerID, id uuid.UUID) (transport.ShareSettingsResponse, error) {
	m, err := s.ownedMap(ctx, ownerID, id)
	if err != nil {
		return transport.ShareSettingsResponse{}, err
	}
	return s.shareSettingsResponse(m), nil
}

// UpdateShareSettings changes how a map is shared. A password map keeps its
// existing secret when no new password is supplied. Switching away from
// password protection drops the secret, and private maps are always disabled.
func (s *Service) UpdateShareSettings(ctx context.Context, ownerID, id uuid.UUID, req transport.UpdateShareSettingsRequest) (transport.ShareSettingsResponse, error) {
	current, err := s.ownedMap(ctx, ownerID, id)
	if err != nil {
		return transport.ShareSettingsResponse{}, err
	}

	next := access.Settings{Type: access.ShareType(req.ShareType), Enabled: req.IsEnabled}
	if !next.Type.Valid() {
		return transport.ShareSettingsResponse{}, apperr.Validation("invalid share type")
	}

	switch next.Type {
	case access.ShareTypePrivate:
		next.Enabled = false
	case access.ShareTypePassword:
		hash, err := s.nextSecret(current, req.Password)
		if err != nil {
			return transport.ShareSettingsResponse{}, err
		}
		next.SecretHash = hash
	}

	updated, err := s.repo.UpdateShareSettings(ctx, id, ownerID, next)
	if err != nil {
		return transport.ShareSettingsResponse{}, err
	}

	s.log.Info("share settings updated", "id", id, "share_type", next.Type, "enabled", next.Enabled)
	return s.shareSettingsResponse(updated), nil
}

func (s *Service) nextSecret(current repository.Map, password *string) (string, error) {
	if password == nil || *password == "" {
		if current.Share.Type == access.ShareTypePassword && current.Share.SecretHash != "" {
			return current.Share.SecretHash, nil
		}
		return "", apperr.Validation("password is required for password protected maps")
	}
	if utf8.RuneCountInString(*password) < minSharePasswordLength {
		return "", apperr.Validationf("password must be at least %d characters", minSharePasswordLength)
	}

	hash, err := access.HashSecret(*password)
	if err != nil {
		return "", fmt.Errorf("hash share password: %w", err)
	}
	return hash, nil
}

// ShareQRCode renders the share link of a map as a PNG.
func (s *Service) ShareQRCode(ctx context.Context, ownerID, id uuid.UUID) ([]byte, error) {
	if _, err := s.ownedMap(ctx, ownerID, id); err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(s.shareURL(id), qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("encode share qr code: %w", err)
	}
	return png, nil
}

// ResolveShared decides whether an anonymous viewer may see a map and, if so,
// returns the map with its markers. The map and its markers are loaded
// concurrently; markers, and any error loading them, are discarded unless
// access is granted.
func (s *Service) ResolveShared(ctx context.Context, id uuid.UUID, password, clientIP string, filter transport.MarkerFilter) (SharedView, error) {
	var (
		m          repository.Map
		found      bool
		markers    []transport.SharedMarker
		markersErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := s.repo.GetByID(gctx, id)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil
			}
			return err
		}
		m, found = loaded, true
		return nil
	})
	if s.markers != nil {
		g.Go(func() error {
			markers, markersErr = s.markers.ListForSharedMap(gctx, id, filter)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return SharedView{}, err
		}
		return SharedView{}, fmt.Errorf("load shared map: %w", err)
	}

	var target access.Target
	if found {
		target = &m
	}
	result := access.Resolve(target, password)

	reason := string(result.Reason)
	if result.Message != "" {
		reason = result.Message
	}
	s.log.WithContext(ctx).ShareAccess(id.String(), result.Outcome.String(), reason, clientIP)

	if !result.Granted() {
		return SharedView{Result: result}, nil
	}

	if markersErr != nil {
		if errors.Is(markersErr, context.Canceled) {
			return SharedView{}, markersErr
		}
		return SharedView{}, fmt.Errorf("load shared markers: %w", markersErr)
	}
	if markers == nil {
		markers = []transport.SharedMarker{}
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.MapViewed{BaseEvent: events.NewBaseEvent(), MapID: id})
	}

	return SharedView{
		Result: result,
		View: &transport.SharedMapResponse{
			Map: transport.SharedMap{
				ID:           m.ID,
				Title:        m.Title,
				Description:  m.Description,
				MainLocation: fromLocation(m.MainLocation),
				Tags:         m.Tags,
				Views:        m.Views,
				UpdatedAt:    m.UpdatedAt,
			},
			Markers: markers,
		},
	}, nil
}
