package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/ids"
	"trailbook/api/internal/models"
	"trailbook/api/internal/repository"
)

type TourService struct {
	tours *repository.TourRepository
}

func NewTourService(tours *repository.TourRepository) *TourService {
	return &TourService{tours: tours}
}

type TourInput struct {
	Name          string
	Duration      int
	MaxGroupSize  int
	Difficulty    string
	Price         float64
	PriceDiscount *float64
	Summary       string
	Description   string
	StartDates    []time.Time
	Secret        bool
	StartLocation *models.Location
	Locations     []models.Location
	GuideIDs      []string
}

func validDifficulty(d string) bool {
	switch models.TourDifficulty(d) {
	case models.TourDifficultyEasy, models.TourDifficultyMedium, models.TourDifficultyDifficult:
		return true
	}
	return false
}

func validateTour(input TourInput) []string {
	var problems []string
	if l := len(strings.TrimSpace(input.Name)); l < 3 || l > 40 {
		problems = append(problems, "Tour name must be between 3 and 40 characters")
	}
	if input.Duration <= 0 {
		problems = append(problems, "Please enter a tour duration")
	}
	if input.MaxGroupSize <= 0 {
		problems = append(problems, "Please enter a max group size")
	}
	if !validDifficulty(input.Difficulty) {
		problems = append(problems, "Difficulty is either easy, medium or difficult")
	}
	if input.Price <= 0 {
		problems = append(problems, "Please enter a price")
	}
	if input.PriceDiscount != nil && *input.PriceDiscount >= input.Price {
		problems = append(problems,
			fmt.Sprintf("Discount price (%.2f) must be less than price", *input.PriceDiscount))
	}
	if strings.TrimSpace(input.Summary) == "" {
		problems = append(problems, "Please enter a tour summary")
	}
	return problems
}

func (s *TourService) Create(ctx context.Context, input TourInput) (models.Tour, error) {
	if problems := validateTour(input); len(problems) > 0 {
		return models.Tour{}, apperror.ValidationFailed(problems...)
	}

	tour := models.Tour{
		ID:             ids.New(),
		Name:           strings.TrimSpace(input.Name),
		Slug:           Slugify(input.Name),
		Duration:       input.Duration,
		MaxGroupSize:   input.MaxGroupSize,
		Difficulty:     models.TourDifficulty(input.Difficulty),
		RatingsAverage: 4.5,
		Price:          input.Price,
		PriceDiscount:  input.PriceDiscount,
		Summary:        strings.TrimSpace(input.Summary),
		Description:    strings.TrimSpace(input.Description),
		StartDates:     input.StartDates,
		Secret:         input.Secret,
		StartLocation:  input.StartLocation,
		Locations:      input.Locations,
		GuideIDs:       input.GuideIDs,
	}

	if err := s.tours.Create(ctx, tour); err != nil {
		return models.Tour{}, err
	}
	return s.tours.GetByID(ctx, tour.ID)
}

// TourPatch carries optional fields of a partial update.
type TourPatch struct {
	Name          *string
	Duration      *int
	MaxGroupSize  *int
	Difficulty    *string
	Price         *float64
	PriceDiscount *float64
	Summary       *string
	Description   *string
	StartDates    *[]time.Time
	Secret        *bool
	GuideIDs      *[]string
}

func (s *TourService) Update(ctx context.Context, id string, patch TourPatch) (models.Tour, error) {
	current, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return models.Tour{}, err
	}

	// Validate the would-be result, not just the patch, so cross-field
	// rules like discount < price hold against the merged values.
	merged := TourInput{
		Name:          current.Name,
		Duration:      current.Duration,
		MaxGroupSize:  current.MaxGroupSize,
		Difficulty:    string(current.Difficulty),
		Price:         current.Price,
		PriceDiscount: current.PriceDiscount,
		Summary:       current.Summary,
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Duration != nil {
		merged.Duration = *patch.Duration
	}
	if patch.MaxGroupSize != nil {
		merged.MaxGroupSize = *patch.MaxGroupSize
	}
	if patch.Difficulty != nil {
		merged.Difficulty = *patch.Difficulty
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.PriceDiscount != nil {
		merged.PriceDiscount = patch.PriceDiscount
	}
	if patch.Summary != nil {
		merged.Summary = *patch.Summary
	}
	if problems := validateTour(merged); len(problems) > 0 {
		return models.Tour{}, apperror.ValidationFailed(problems...)
	}

	update := repository.TourUpdate{
		Name:          patch.Name,
		Duration:      patch.Duration,
		MaxGroupSize:  patch.MaxGroupSize,
		Price:         patch.Price,
		PriceDiscount: patch.PriceDiscount,
		Summary:       patch.Summary,
		Description:   patch.Description,
		StartDates:    patch.StartDates,
		Secret:        patch.Secret,
		GuideIDs:      patch.GuideIDs,
	}
	if patch.Difficulty != nil {
		d := models.TourDifficulty(*patch.Difficulty)
		update.Difficulty = &d
	}
	if patch.Name != nil {
		slug := Slugify(*patch.Name)
		update.Slug = &slug
	}

	return s.tours.Update(ctx, id, update)
}

// Slugify lowers a name to a URL path segment: runs of anything that is not
// a letter or digit collapse to single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
