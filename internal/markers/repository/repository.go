package repository

import (
	"context"
	"errors"
	"fmt"

	"mapshare_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const markerNotFoundMessage = "marker not found"

const markerColumns = `
	id, map_id, title, category_id, lat, lng, address, description,
	tips, images, icon_color, icon_shape, created_by, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new markers repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a marker.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Marker, error) {
	query := `
		INSERT INTO markers (
			id, map_id, title, category_id, lat, lng, address, description,
			tips, images, icon_color, icon_shape, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + markerColumns

	row := r.pool.QueryRow(ctx, query,
		uuid.New(), params.MapID, params.Title, params.CategoryID, params.Lat, params.Lng,
		params.Address, params.Description, nonNil(params.Tips), nonNil(params.Images),
		params.IconColor, params.IconShape, params.CreatedBy,
	)
	m, err := scanMarker(row)
	if err != nil {
		return Marker{}, fmt.Errorf("create marker: %w", err)
	}
	return m, nil
}

// GetByID retrieves a marker of a map.
func (r *Repo) GetByID(ctx context.Context, mapID, id uuid.UUID) (Marker, error) {
	query := `SELECT ` + markerColumns + ` FROM markers WHERE id = $1 AND map_id = $2`

	m, err := scanMarker(r.pool.QueryRow(ctx, query, id, mapID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Marker{}, apperr.NotFound(markerNotFoundMessage)
		}
		return Marker{}, fmt.Errorf("get marker by id: %w", err)
	}
	return m, nil
}

// ListByMap returns all markers of a map, newest first.
func (r *Repo) ListByMap(ctx context.Context, mapID uuid.UUID) ([]Marker, error) {
	query := `
		SELECT ` + markerColumns + `
		FROM markers
		WHERE map_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, mapID)
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	defer rows.Close()

	items := make([]Marker, 0)
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markers: %w", err)
	}
	return items, nil
}

// CountByMap counts the markers of a map.
func (r *Repo) CountByMap(ctx context.Context, mapID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM markers WHERE map_id = $1`, mapID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count markers: %w", err)
	}
	return n, nil
}

// Update applies a partial update.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Marker, error) {
	query := `
		UPDATE markers SET
			title = COALESCE($3, title),
			category_id = CASE WHEN $4::boolean THEN NULL ELSE COALESCE($5, category_id) END,
			lat = COALESCE($6, lat),
			lng = COALESCE($7, lng),
			address = COALESCE($8, address),
			description = COALESCE($9, description),
			tips = CASE WHEN $10::boolean THEN $11::text[] ELSE tips END,
			images = CASE WHEN $12::boolean THEN $13::text[] ELSE images END,
			icon_color = COALESCE($14, icon_color),
			icon_shape = COALESCE($15, icon_shape),
			updated_at = now()
		WHERE id = $1 AND map_id = $2
		RETURNING ` + markerColumns

	row := r.pool.QueryRow(ctx, query,
		params.ID, params.MapID,
		params.Title, params.ClearCategory, params.CategoryID,
		params.Lat, params.Lng, params.Address, params.Description,
		params.TipsSet, nonNil(params.Tips),
		params.ImagesSet, nonNil(params.Images),
		params.IconColor, params.IconShape,
	)
	m, err := scanMarker(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Marker{}, apperr.NotFound(markerNotFoundMessage)
		}
		return Marker{}, fmt.Errorf("update marker: %w", err)
	}
	return m, nil
}

// Delete removes a marker and returns what was removed.
func (r *Repo) Delete(ctx context.Context, mapID, id uuid.UUID) (Marker, error) {
	query := `DELETE FROM markers WHERE id = $1 AND map_id = $2 RETURNING ` + markerColumns

	m, err := scanMarker(r.pool.QueryRow(ctx, query, id, mapID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Marker{}, apperr.NotFound(markerNotFoundMessage)
		}
		return Marker{}, fmt.Errorf("delete marker: %w", err)
	}
	return m, nil
}

// DeleteByMap removes every marker of a map.
func (r *Repo) DeleteByMap(ctx context.Context, mapID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM markers WHERE map_id = $1`, mapID)
	if err != nil {
		return 0, fmt.Errorf("delete markers by map: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMarker(row pgx.Row) (Marker, error) {
	var m Marker
	err := row.Scan(
		&m.ID, &m.MapID, &m.Title, &m.CategoryID, &m.Lat, &m.Lng, &m.Address, &m.Description,
		&m.Tips, &m.Images, &m.IconColor, &m.IconShape, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return Marker{}, err
	}
	m.Tips = nonNil(m.Tips)
	m.Images = nonNil(m.Images)
	return m, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
