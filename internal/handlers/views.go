package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/middleware"
	"trailbook/api/internal/models"
	"trailbook/api/internal/repository"
)

// viewData merges page-specific fields with the user OptionalAuth attached,
// so templates can personalize the header.
func viewData(c *gin.Context, title string, extra gin.H) gin.H {
	data := gin.H{"title": title}
	if user, ok := middleware.CurrentUser(c); ok {
		data["user"] = toUserResponse(user)
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func (h HandlerSet) Overview(c *gin.Context) {
	tours, err := h.tours.List(c.Request.Context(), repository.TourFilter{Limit: 50})
	if err != nil {
		fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "overview.html", viewData(c, "All Tours", gin.H{
		"tours": tours,
	}))
}

func (h HandlerSet) TourPage(c *gin.Context) {
	tour, err := h.tours.GetVisibleBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			fail(c, apperror.NotFound("There is no tour with that name."))
			return
		}
		fail(c, err)
		return
	}

	reviews, err := h.reviews.ListByTour(c.Request.Context(), tour.ID)
	if err != nil {
		fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "tour.html", viewData(c, tour.Name+" Tour", gin.H{
		"tour":    tour,
		"reviews": reviews,
	}))
}

func (h HandlerSet) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", viewData(c, "Log in", nil))
}

func (h HandlerSet) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", viewData(c, "Sign up to get started", nil))
}

func (h HandlerSet) AccountPage(c *gin.Context) {
	c.HTML(http.StatusOK, "account.html", viewData(c, "Your Account", nil))
}

// MyToursPage lists the tours the user has booked.
func (h HandlerSet) MyToursPage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	bookings, err := h.bookings.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}

	tours := make([]models.Tour, 0, len(bookings))
	for _, booking := range bookings {
		tour, err := h.tours.GetByID(c.Request.Context(), booking.TourID)
		if err != nil {
			if errors.Is(err, repository.ErrTourNotFound) {
				continue
			}
			fail(c, err)
			return
		}
		tours = append(tours, tour)
	}

	c.HTML(http.StatusOK, "overview.html", viewData(c, "My Tours", gin.H{
		"tours": tours,
	}))
}
