package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trailbook/api/internal/models"
)

var ErrTourNotFound = errors.New("tour not found")

const tourColumns = `
	id, name, slug, duration, max_group_size, difficulty, ratings_average,
	ratings_quantity, price, price_discount, summary, description, image_cover,
	images, start_dates, secret, start_location, locations, guide_ids,
	created_at, updated_at
`

// TourFilter narrows and orders a listing. Sort accepts a column name with
// an optional leading '-' for descending, mirroring the query-string syntax.
type TourFilter struct {
	Difficulty    string
	MinPrice      *float64
	MaxPrice      *float64
	Sort          string
	Page          int
	Limit         int
	IncludeSecret bool
}

var tourSortColumns = map[string]string{
	"price":           "price",
	"ratings_average": "ratings_average",
	"created_at":      "created_at",
	"name":            "name",
	"duration":        "duration",
}

type TourRepository struct {
	pool *pgxpool.Pool
}

func NewTourRepository(pool *pgxpool.Pool) *TourRepository {
	return &TourRepository{pool: pool}
}

func scanTour(row pgx.Row) (models.Tour, error) {
	var (
		tour          models.Tour
		startLocation []byte
		locations     []byte
	)
	if err := row.Scan(
		&tour.ID,
		&tour.Name,
		&tour.Slug,
		&tour.Duration,
		&tour.MaxGroupSize,
		&tour.Difficulty,
		&tour.RatingsAverage,
		&tour.RatingsQuantity,
		&tour.Price,
		&tour.PriceDiscount,
		&tour.Summary,
		&tour.Description,
		&tour.ImageCover,
		&tour.Images,
		&tour.StartDates,
		&tour.Secret,
		&startLocation,
		&locations,
		&tour.GuideIDs,
		&tour.CreatedAt,
		&tour.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tour{}, ErrTourNotFound
		}
		return models.Tour{}, err
	}

	if len(startLocation) > 0 {
		if err := json.Unmarshal(startLocation, &tour.StartLocation); err != nil {
			return models.Tour{}, fmt.Errorf("decode start_location: %w", err)
		}
	}
	if len(locations) > 0 {
		if err := json.Unmarshal(locations, &tour.Locations); err != nil {
			return models.Tour{}, fmt.Errorf("decode locations: %w", err)
		}
	}
	return tour, nil
}

func encodeJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (r *TourRepository) Create(ctx context.Context, tour models.Tour) error {
	startLocation, err := encodeJSON(tour.StartLocation)
	if err != nil {
		return err
	}
	locations, err := encodeJSON(tour.Locations)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO tours (
			id, name, slug, duration, max_group_size, difficulty, ratings_average,
			ratings_quantity, price, price_discount, summary, description, image_cover,
			images, start_dates, secret, start_location, locations, guide_ids,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, NOW(), NOW()
		)
	`
	_, err = r.pool.Exec(ctx, query,
		tour.ID,
		tour.Name,
		tour.Slug,
		tour.Duration,
		tour.MaxGroupSize,
		tour.Difficulty,
		tour.RatingsAverage,
		tour.RatingsQuantity,
		tour.Price,
		tour.PriceDiscount,
		tour.Summary,
		tour.Description,
		tour.ImageCover,
		tour.Images,
		tour.StartDates,
		tour.Secret,
		startLocation,
		locations,
		tour.GuideIDs,
	)
	return err
}

const (
	tourByIDQuery = `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`

	// Secret tours never surface on the public read paths; only the staff
	// flows go through the unfiltered lookups.
	tourVisibleByIDQuery   = tourByIDQuery + ` AND NOT secret`
	tourVisibleBySlugQuery = `SELECT ` + tourColumns + ` FROM tours WHERE slug = $1 AND NOT secret`
)

// GetByID returns the tour regardless of its secret flag; callers on public
// paths use GetVisibleByID instead.
func (r *TourRepository) GetByID(ctx context.Context, id string) (models.Tour, error) {
	return scanTour(r.pool.QueryRow(ctx, tourByIDQuery, id))
}

func (r *TourRepository) GetVisibleByID(ctx context.Context, id string) (models.Tour, error) {
	return scanTour(r.pool.QueryRow(ctx, tourVisibleByIDQuery, id))
}

func (r *TourRepository) GetVisibleBySlug(ctx context.Context, slug string) (models.Tour, error) {
	return scanTour(r.pool.QueryRow(ctx, tourVisibleBySlugQuery, slug))
}

// buildTourListQuery renders the filter into SQL. Sort columns go through
// the whitelist; everything user-supplied is bound as an argument.
func buildTourListQuery(filter TourFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeSecret {
		where = append(where, "NOT secret")
	}
	if filter.Difficulty != "" {
		where = append(where, "difficulty = "+arg(filter.Difficulty))
	}
	if filter.MinPrice != nil {
		where = append(where, "price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "price <= "+arg(*filter.MaxPrice))
	}

	orderBy := "created_at DESC"
	if filter.Sort != "" {
		dir := "ASC"
		col := filter.Sort
		if strings.HasPrefix(col, "-") {
			dir = "DESC"
			col = col[1:]
		}
		if safe, ok := tourSortColumns[col]; ok {
			orderBy = safe + " " + dir
		}
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := `SELECT ` + tourColumns + ` FROM tours`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderBy
	query += " LIMIT " + arg(limit) + " OFFSET " + arg((page-1)*limit)

	return query, args
}

func (r *TourRepository) List(ctx context.Context, filter TourFilter) ([]models.Tour, error) {
	query, args := buildTourListQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []models.Tour
	for rows.Next() {
		tour, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, tour)
	}
	return tours, rows.Err()
}

// TourUpdate carries the mutable fields of a PATCH; nil means unchanged.
type TourUpdate struct {
	Name          *string
	Slug          *string
	Duration      *int
	MaxGroupSize  *int
	Difficulty    *models.TourDifficulty
	Price         *float64
	PriceDiscount *float64
	Summary       *string
	Description   *string
	StartDates    *[]time.Time
	Secret        *bool
	GuideIDs      *[]string
}

func (r *TourRepository) Update(ctx context.Context, id string, update TourUpdate) (models.Tour, error) {
	var (
		sets []string
		args = []any{id}
	)

	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.Slug != nil {
		set("slug", *update.Slug)
	}
	if update.Duration != nil {
		set("duration", *update.Duration)
	}
	if update.MaxGroupSize != nil {
		set("max_group_size", *update.MaxGroupSize)
	}
	if update.Difficulty != nil {
		set("difficulty", *update.Difficulty)
	}
	if update.Price != nil {
		set("price", *update.Price)
	}
	if update.PriceDiscount != nil {
		set("price_discount", *update.PriceDiscount)
	}
	if update.Summary != nil {
		set("summary", *update.Summary)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.StartDates != nil {
		set("start_dates", *update.StartDates)
	}
	if update.Secret != nil {
		set("secret", *update.Secret)
	}
	if update.GuideIDs != nil {
		set("guide_ids", *update.GuideIDs)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	query := "UPDATE tours SET " + strings.Join(sets, ", ") + " WHERE id = $1 RETURNING " + tourColumns
	return scanTour(r.pool.QueryRow(ctx, query, args...))
}

func (r *TourRepository) UpdateImages(ctx context.Context, id string, cover string, images []string) error {
	const query = `
		UPDATE tours
		SET image_cover = COALESCE(NULLIF($2, ''), image_cover),
		    images = CASE WHEN $3::text[] IS NULL THEN images ELSE $3 END,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, cover, images)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTourNotFound
	}
	return nil
}

func (r *TourRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTourNotFound
	}
	return nil
}

func (r *TourRepository) UpdateRatingStats(ctx context.Context, id string, average float64, quantity int) error {
	const query = `
		UPDATE tours SET ratings_average = $2, ratings_quantity = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, average, quantity)
	return err
}

// Stats aggregates non-secret tours by difficulty.
func (r *TourRepository) Stats(ctx context.Context) ([]models.TourStats, error) {
	const query = `
		SELECT difficulty,
		       COUNT(*),
		       COALESCE(SUM(ratings_quantity), 0),
		       COALESCE(ROUND(AVG(ratings_average)::numeric, 2), 0),
		       COALESCE(ROUND(AVG(price)::numeric, 2), 0),
		       COALESCE(MIN(price), 0),
		       COALESCE(MAX(price), 0)
		FROM tours
		WHERE NOT secret
		GROUP BY difficulty
		ORDER BY difficulty
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.TourStats
	for rows.Next() {
		var s models.TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
