package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mapshare_backend/internal/maps/access"
	"mapshare_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const mapNotFoundMessage = "map not found"

const mapColumns = `
	id, owner_id, title, description,
	location_lat, location_lng, location_address, location_city,
	tags, share_type, share_enabled, share_password_hash,
	views, likes, comments, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New creates a new maps repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, now: time.Now}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a new private map.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Map, error) {
	query := `
		INSERT INTO maps (
			id, owner_id, title, description,
			location_lat, location_lng, location_address, location_city,
			tags, share_type, share_enabled, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'private', false, $10, $10)
		RETURNING ` + mapColumns

	lat, lng, address, city := locationArgs(params.MainLocation)
	now := r.now().UTC()

	row := r.pool.QueryRow(ctx, query,
		uuid.New(), params.OwnerID, params.Title, params.Description,
		lat, lng, address, city,
		nonNilTags(params.Tags), now,
	)
	m, err := scanMap(row)
	if err != nil {
		return Map{}, fmt.Errorf("create map: %w", err)
	}
	return m, nil
}

// GetByID retrieves a map regardless of owner. Callers enforce ownership.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Map, error) {
	query := `SELECT ` + mapColumns + ` FROM maps WHERE id = $1`

	m, err := scanMap(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Map{}, apperr.NotFound(mapNotFoundMessage)
		}
		return Map{}, fmt.Errorf("get map by id: %w", err)
	}
	return m, nil
}

// ListByOwner returns the owner's maps, most recently updated first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Map, error) {
	query := `
		SELECT ` + mapColumns + `
		FROM maps
		WHERE owner_id = $1
		ORDER BY updated_at DESC, id`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	defer rows.Close()

	items := make([]Map, 0)
	for rows.Next() {
		m, err := scanMap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan map: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate maps: %w", err)
	}
	return items, nil
}

// Update applies a partial update to a map owned by params.OwnerID.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Map, error) {
	query := `
		UPDATE maps SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			tags = CASE WHEN $5::boolean THEN $6::text[] ELSE tags END,
			location_lat = CASE WHEN $7::boolean THEN $8 ELSE location_lat END,
			location_lng = CASE WHEN $7::boolean THEN $9 ELSE location_lng END,
			location_address = CASE WHEN $7::boolean THEN $10 ELSE location_address END,
			location_city = CASE WHEN $7::boolean THEN $11 ELSE location_city END,
			updated_at = $12
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + mapColumns

	setLocation := params.MainLocation != nil || params.ClearLocation
	lat, lng, address, city := locationArgs(params.MainLocation)

	row := r.pool.QueryRow(ctx, query,
		params.ID, params.OwnerID,
		params.Title, params.Description,
		params.TagsSet, nonNilTags(params.Tags),
		setLocation, lat, lng, address, city,
		r.now().UTC(),
	)
	m, err := scanMap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Map{}, apperr.NotFound(mapNotFoundMessage)
		}
		return Map{}, fmt.Errorf("update map: %w", err)
	}
	return m, nil
}

// Delete removes a map owned by ownerID. Markers are not touched here.
func (r *Repo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM maps WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete map: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(mapNotFoundMessage)
	}
	return nil
}

// UpdateShareSettings replaces the share configuration of a map.
func (r *Repo) UpdateShareSettings(ctx context.Context, id, ownerID uuid.UUID, settings access.Settings) (Map, error) {
	query := `
		UPDATE maps SET
			share_type = $3,
			share_enabled = $4,
			share_password_hash = $5,
			updated_at = $6
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + mapColumns

	var hash *string
	if settings.Type == access.ShareTypePassword && settings.SecretHash != "" {
		hash = &settings.SecretHash
	}

	row := r.pool.QueryRow(ctx, query, id, ownerID, string(settings.Type), settings.Enabled, hash, r.now().UTC())
	m, err := scanMap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Map{}, apperr.NotFound(mapNotFoundMessage)
		}
		return Map{}, fmt.Errorf("update share settings: %w", err)
	}
	return m, nil
}

// IncrementViews atomically bumps the view counter.
func (r *Repo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE maps SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment map views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(mapNotFoundMessage)
	}
	return nil
}

// Stats aggregates counters over the owner's maps.
func (r *Repo) Stats(ctx context.Context, ownerID uuid.UUID) (Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE share_enabled AND share_type <> 'private'),
			COALESCE(SUM(views), 0),
			COALESCE(SUM(likes), 0)
		FROM maps
		WHERE owner_id = $1`

	var s Stats
	if err := r.pool.QueryRow(ctx, query, ownerID).Scan(&s.TotalMaps, &s.SharedMaps, &s.TotalViews, &s.TotalLikes); err != nil {
		return Stats{}, fmt.Errorf("map stats: %w", err)
	}
	return s, nil
}

func scanMap(row pgx.Row) (Map, error) {
	var (
		m         Map
		lat, lng  *float64
		address   *string
		city      *string
		shareType string
		hash      *string
	)

	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Title, &m.Description,
		&lat, &lng, &address, &city,
		&m.Tags, &shareType, &m.Share.Enabled, &hash,
		&m.Views, &m.Likes, &m.Comments, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return Map{}, err
	}

	if lat != nil && lng != nil {
		loc := &Location{Lat: *lat, Lng: *lng, City: city}
		if address != nil {
			loc.Address = *address
		}
		m.MainLocation = loc
	}
	m.Share.Type = access.ShareType(shareType)
	if hash != nil {
		m.Share.SecretHash = *hash
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m, nil
}

func locationArgs(loc *Location) (lat, lng *float64, address, city *string) {
	if loc == nil {
		return nil, nil, nil, nil
	}
	la, ln, addr := loc.Lat, loc.Lng, loc.Address
	return &la, &ln, &addr, loc.City
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
