package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/middleware"
	"trailbook/api/internal/models"
)

type reviewResponse struct {
	ID        string    `json:"id"`
	Review    string    `json:"review"`
	Rating    int       `json:"rating"`
	TourID    string    `json:"tour"`
	UserID    string    `json:"user"`
	UserName  string    `json:"userName,omitempty"`
	UserPhoto *string   `json:"userPhoto,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewResponse(review models.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		Review:    review.Review,
		Rating:    review.Rating,
		TourID:    review.TourID,
		UserID:    review.UserID,
		UserName:  review.UserName,
		UserPhoto: review.UserPhoto,
		CreatedAt: review.CreatedAt,
	}
}

func (h HandlerSet) ListTourReviews(c *gin.Context) {
	reviews, err := h.reviews.ListByTour(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, toReviewResponse(review))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"reviews": out},
	})
}

type reviewRequest struct {
	Review string `json:"review" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
}

func (h HandlerSet) CreateReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), c.Param("id"), user.ID, req.Review, req.Rating)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"review": toReviewResponse(review)},
	})
}

func (h HandlerSet) UpdateReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), c.Param("id"), user, req.Review, req.Rating)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"review": toReviewResponse(review)},
	})
}

func (h HandlerSet) DeleteReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), c.Param("id"), user); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
