package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/ids"
	"trailbook/api/internal/models"
	"trailbook/api/internal/repository"
)

type ReviewService struct {
	reviews *repository.ReviewRepository
	tours   *repository.TourRepository
	log     zerolog.Logger
}

func NewReviewService(reviews *repository.ReviewRepository, tours *repository.TourRepository, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		tours:   tours,
		log:     log,
	}
}

func validateReview(text string, rating int) []string {
	var problems []string
	if strings.TrimSpace(text) == "" {
		problems = append(problems, "Review can not be empty")
	}
	if rating < 1 || rating > 5 {
		problems = append(problems, "Rating must be between 1 and 5")
	}
	return problems
}

func (s *ReviewService) Create(ctx context.Context, tourID, userID, text string, rating int) (models.Review, error) {
	if problems := validateReview(text, rating); len(problems) > 0 {
		return models.Review{}, apperror.ValidationFailed(problems...)
	}

	if _, err := s.tours.GetByID(ctx, tourID); err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return models.Review{}, apperror.NotFound("There is no tour with that id")
		}
		return models.Review{}, err
	}

	review := models.Review{
		ID:     ids.New(),
		Review: strings.TrimSpace(text),
		Rating: rating,
		TourID: tourID,
		UserID: userID,
	}

	// One review per user per tour; the unique constraint surfaces a
	// duplicate as a 400 through the normalizer.
	if err := s.reviews.Create(ctx, review); err != nil {
		return models.Review{}, err
	}

	s.recomputeRatings(ctx, tourID)
	return review, nil
}

// Update lets the author edit their review; admins may edit any.
func (s *ReviewService) Update(ctx context.Context, id string, actor models.User, text string, rating int) (models.Review, error) {
	if problems := validateReview(text, rating); len(problems) > 0 {
		return models.Review{}, apperror.ValidationFailed(problems...)
	}

	existing, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return models.Review{}, apperror.NotFound("No review found with that id")
		}
		return models.Review{}, err
	}
	if existing.UserID != actor.ID && actor.Role != models.UserRoleAdmin {
		return models.Review{}, apperror.Forbidden("You do not have permission to perform this action")
	}

	updated, err := s.reviews.Update(ctx, id, strings.TrimSpace(text), rating)
	if err != nil {
		return models.Review{}, err
	}

	s.recomputeRatings(ctx, updated.TourID)
	return updated, nil
}

func (s *ReviewService) Delete(ctx context.Context, id string, actor models.User) error {
	existing, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return apperror.NotFound("No review found with that id")
		}
		return err
	}
	if existing.UserID != actor.ID && actor.Role != models.UserRoleAdmin {
		return apperror.Forbidden("You do not have permission to perform this action")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}

	s.recomputeRatings(ctx, existing.TourID)
	return nil
}

// recomputeRatings refreshes the tour's denormalized rating columns. A
// failure here is logged, not returned: the review write already happened
// and the nightly reconciliation job repairs any drift.
func (s *ReviewService) recomputeRatings(ctx context.Context, tourID string) {
	average, quantity, err := s.reviews.AggregateForTour(ctx, tourID)
	if err != nil {
		s.log.Error().Err(err).Str("tour_id", tourID).Msg("aggregate ratings failed")
		return
	}
	if err := s.tours.UpdateRatingStats(ctx, tourID, average, quantity); err != nil {
		s.log.Error().Err(err).Str("tour_id", tourID).Msg("update rating stats failed")
	}
}
