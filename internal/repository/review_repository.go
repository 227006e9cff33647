package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trailbook/api/internal/models"
)

var ErrReviewNotFound = errors.New("review not found")

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, review models.Review) error {
	const query = `
		INSERT INTO reviews (id, review, rating, tour_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.Review,
		review.Rating,
		review.TourID,
		review.UserID,
	)
	return err
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (models.Review, error) {
	const query = `
		SELECT id, review, rating, tour_id, user_id, created_at, updated_at
		FROM reviews WHERE id = $1
	`
	var review models.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.Review,
		&review.Rating,
		&review.TourID,
		&review.UserID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Review{}, ErrReviewNotFound
	}
	return review, err
}

// ListByTour joins the author so rendered pages can show name and photo.
func (r *ReviewRepository) ListByTour(ctx context.Context, tourID string) ([]models.Review, error) {
	const query = `
		SELECT rv.id, rv.review, rv.rating, rv.tour_id, rv.user_id,
		       rv.created_at, rv.updated_at, u.name, u.photo
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.tour_id = $1
		ORDER BY rv.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID,
			&review.Review,
			&review.Rating,
			&review.TourID,
			&review.UserID,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.UserName,
			&review.UserPhoto,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) Update(ctx context.Context, id string, text string, rating int) (models.Review, error) {
	const query = `
		UPDATE reviews SET review = $2, rating = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, review, rating, tour_id, user_id, created_at, updated_at
	`
	var review models.Review
	err := r.pool.QueryRow(ctx, query, id, text, rating).Scan(
		&review.ID,
		&review.Review,
		&review.Rating,
		&review.TourID,
		&review.UserID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Review{}, ErrReviewNotFound
	}
	return review, err
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// AggregateForTour returns the current average and count for a tour. A tour
// with no reviews keeps the catalog default of 4.5.
func (r *ReviewRepository) AggregateForTour(ctx context.Context, tourID string) (float64, int, error) {
	const query = `
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 4.5), COUNT(*)
		FROM reviews WHERE tour_id = $1
	`
	var (
		average  float64
		quantity int
	)
	if err := r.pool.QueryRow(ctx, query, tourID).Scan(&average, &quantity); err != nil {
		return 0, 0, err
	}
	return average, quantity, nil
}

// ReconcileTourRatings rewrites every tour's denormalized rating columns
// from the reviews table in one statement. Run periodically to repair drift.
func (r *ReviewRepository) ReconcileTourRatings(ctx context.Context) (int64, error) {
	const query = `
		UPDATE tours t
		SET ratings_average = agg.avg_rating, ratings_quantity = agg.num
		FROM (
			SELECT tour_id, ROUND(AVG(rating)::numeric, 1) AS avg_rating, COUNT(*) AS num
			FROM reviews GROUP BY tour_id
		) agg
		WHERE t.id = agg.tour_id
		  AND (t.ratings_average <> agg.avg_rating OR t.ratings_quantity <> agg.num)
	`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
