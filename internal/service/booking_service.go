package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/config"
	"trailbook/api/internal/ids"
	"trailbook/api/internal/models"
	"trailbook/api/internal/payments"
	"trailbook/api/internal/repository"
)

// CheckoutProvider creates hosted payment sessions.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, input payments.CheckoutInput) (payments.CheckoutSession, error)
}

type BookingService struct {
	bookings *repository.BookingRepository
	tours    *repository.TourRepository
	checkout CheckoutProvider
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewBookingService(
	bookings *repository.BookingRepository,
	tours *repository.TourRepository,
	checkout CheckoutProvider,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		tours:    tours,
		checkout: checkout,
		cfg:      cfg,
		log:      log,
	}
}

// CreateCheckoutSession builds a provider checkout session for one spot on
// a tour, priced at the current tour price.
func (s *BookingService) CreateCheckoutSession(ctx context.Context, user models.User, tourID string) (payments.CheckoutSession, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return payments.CheckoutSession{}, apperror.NotFound("There is no tour with that id")
		}
		return payments.CheckoutSession{}, err
	}

	base := strings.TrimSuffix(s.cfg.PublicBaseURL, "/")
	session, err := s.checkout.CreateCheckoutSession(ctx, payments.CheckoutInput{
		TourID:          tour.ID,
		TourName:        tour.Name,
		TourSummary:     tour.Summary,
		ImageURL:        tour.ImageCover,
		AmountCents:     int64(math.Round(tour.Price * 100)),
		CustomerEmail:   user.Email,
		ClientReference: tour.ID + ":" + user.ID,
		SuccessURL:      base + "/my-tours?alert=booking",
		CancelURL:       base + "/tour/" + tour.Slug,
	})
	if err != nil {
		return payments.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return session, nil
}

// RecordCheckoutCompleted turns a verified completion event into a paid
// booking row.
func (s *BookingService) RecordCheckoutCompleted(ctx context.Context, event payments.WebhookEvent) error {
	tourID, userID, ok := strings.Cut(event.Data.Object.ClientReferenceID, ":")
	if !ok || tourID == "" || userID == "" {
		return apperror.BadRequest("Malformed checkout reference")
	}

	booking := models.Booking{
		ID:     ids.New(),
		TourID: tourID,
		UserID: userID,
		Price:  float64(event.Data.Object.AmountTotal) / 100,
		Paid:   true,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return err
	}

	s.log.Info().
		Str("booking_id", booking.ID).
		Str("tour_id", tourID).
		Str("user_id", userID).
		Msg("booking recorded from checkout webhook")
	return nil
}
