package geosearch

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"mapshare_backend/platform/apperr"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/ratelimit"
)

const (
	msgQueryTooShort    = "Query must be at least 3 characters"
	msgInvalidReference = "Invalid reference point"
	msgRateLimited      = "Rate limit exceeded. Please wait a moment."
	msgSearchFailed     = "Failed to search locations"
)

// Service runs proximity-ranked location searches.
type Service struct {
	provider Provider
	limiter  ratelimit.Limiter
	log      *logger.Logger
}

// NewService creates a search service. limiter is keyed by client identifier.
func NewService(provider Provider, limiter ratelimit.Limiter, log *logger.Logger) *Service {
	return &Service{provider: provider, limiter: limiter, log: log}
}

// Search validates the request, applies the per-client limit and queries the
// geocoder once. Invalid or rate limited requests never reach the geocoder.
func (s *Service) Search(ctx context.Context, clientID string, req Request) (Response, error) {
	query := strings.TrimSpace(req.Query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return Response{}, apperr.Wrap(apperr.KindValidation, msgQueryTooShort, ErrInvalidQuery)
	}
	if req.Reference != nil && !req.Reference.Valid() {
		return Response{}, apperr.Wrap(apperr.KindValidation, msgInvalidReference, ErrInvalidReference)
	}
	limit := clampLimit(req.Limit)

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, clientID)
		if err != nil {
			// Limiter backend failures let the search through.
			s.log.Warn("search rate limiter unavailable", "error", err)
			allowed = true
		}
		if !allowed {
			s.log.WithContext(ctx).RateLimitExceeded(clientID, "/api/search/poi")
			return Response{}, apperr.Wrap(apperr.KindRateLimited, msgRateLimited, ErrRateLimited)
		}
	}

	pq := ProviderQuery{Text: query, Limit: limit}
	if req.Reference != nil {
		pq.Limit = 2 * limit
		pq.Viewbox = ViewboxAround(*req.Reference)
	}

	places, err := s.provider.Search(ctx, pq)
	if err != nil {
		// Only a caller that went away gets the raw error. A caller deadline
		// is reported like any other failed upstream call.
		if errors.Is(ctx.Err(), context.Canceled) {
			return Response{}, ctx.Err()
		}
		status := 0
		var perr *ProviderError
		if errors.As(err, &perr) {
			status = perr.StatusCode
		}
		s.log.WithContext(ctx).ProviderFailure("nominatim", status, err)
		return Response{}, apperr.Wrap(apperr.KindInternal, msgSearchFailed, err)
	}

	candidates := candidatesFrom(places, req.Reference)
	rank(candidates, req.Reference != nil)
	return Response{Results: truncate(candidates, limit)}, nil
}
