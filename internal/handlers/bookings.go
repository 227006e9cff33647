package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/middleware"
	"trailbook/api/internal/models"
	"trailbook/api/internal/payments"
	"trailbook/api/internal/repository"
)

type bookingResponse struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tour"`
	UserID    string    `json:"user"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	TourName  string    `json:"tourName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toBookingResponse(booking models.Booking) bookingResponse {
	return bookingResponse{
		ID:        booking.ID,
		TourID:    booking.TourID,
		UserID:    booking.UserID,
		Price:     booking.Price,
		Paid:      booking.Paid,
		TourName:  booking.TourName,
		CreatedAt: booking.CreatedAt,
	}
}

// CheckoutSession starts a hosted payment flow for one spot on a tour.
func (h HandlerSet) CheckoutSession(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	session, err := h.bookingService.CreateCheckoutSession(c.Request.Context(), user, c.Param("tourId"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"session": session,
	})
}

// CheckoutWebhook is called by the payment provider, not by browsers. The
// request is authenticated by its HMAC signature, never by session token.
func (h HandlerSet) CheckoutWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, apperror.BadRequest("Unreadable webhook payload"))
		return
	}

	event, err := payments.ParseWebhook(body, c.GetHeader("Signature"), h.cfg.Payments.WebhookSecret)
	if err != nil {
		if errors.Is(err, payments.ErrBadWebhookSignature) {
			fail(c, apperror.NotAuthenticated("Invalid webhook signature"))
			return
		}
		fail(c, apperror.BadRequest("Malformed webhook payload"))
		return
	}

	if event.Type == "checkout.session.completed" {
		if err := h.bookingService.RecordCheckoutCompleted(c.Request.Context(), event); err != nil {
			fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h HandlerSet) MyBookings(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	bookings, err := h.bookings.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingResponse(booking))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"bookings": out},
	})
}

func (h HandlerSet) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.List(c.Request.Context(), 100, 0)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingResponse(booking))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"bookings": out},
	})
}

func (h HandlerSet) GetBooking(c *gin.Context) {
	booking, err := h.bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			fail(c, apperror.NotFound("No booking found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"booking": toBookingResponse(booking)},
	})
}

type bookingPatchRequest struct {
	Paid *bool `json:"paid" binding:"required"`
}

func (h HandlerSet) UpdateBooking(c *gin.Context) {
	var req bookingPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	if err := h.bookings.SetPaid(c.Request.Context(), c.Param("id"), *req.Paid); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			fail(c, apperror.NotFound("No booking found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h HandlerSet) DeleteBooking(c *gin.Context) {
	if err := h.bookings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			fail(c, apperror.NotFound("No booking found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
