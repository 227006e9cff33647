package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trailbook/api/internal/models"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Create(ctx context.Context, booking models.Booking) error {
	const query = `
		INSERT INTO bookings (id, tour_id, user_id, price, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		booking.ID,
		booking.TourID,
		booking.UserID,
		booking.Price,
		booking.Paid,
	)
	return err
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (models.Booking, error) {
	const query = `
		SELECT id, tour_id, user_id, price, paid, created_at
		FROM bookings WHERE id = $1
	`
	var booking models.Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.TourID,
		&booking.UserID,
		&booking.Price,
		&booking.Paid,
		&booking.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Booking{}, ErrBookingNotFound
	}
	return booking, err
}

func (r *BookingRepository) List(ctx context.Context, limit, offset int) ([]models.Booking, error) {
	const query = `
		SELECT b.id, b.tour_id, b.user_id, b.price, b.paid, b.created_at, t.name, t.slug
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		ORDER BY b.created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryBookings(ctx, query, limit, offset)
}

// ListByUser powers the "my tours" page.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	const query = `
		SELECT b.id, b.tour_id, b.user_id, b.price, b.paid, b.created_at, t.name, t.slug
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`
	return r.queryBookings(ctx, query, userID)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.TourID,
			&booking.UserID,
			&booking.Price,
			&booking.Paid,
			&booking.CreatedAt,
			&booking.TourName,
			&booking.TourSlug,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (r *BookingRepository) SetPaid(ctx context.Context, id string, paid bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE bookings SET paid = $2 WHERE id = $1`, id, paid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}
