package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/models"
	"trailbook/api/internal/repository"
	"trailbook/api/internal/service"
)

type tourResponse struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Slug            string             `json:"slug"`
	Duration        int                `json:"duration"`
	MaxGroupSize    int                `json:"maxGroupSize"`
	Difficulty      string             `json:"difficulty"`
	RatingsAverage  float64            `json:"ratingsAverage"`
	RatingsQuantity int                `json:"ratingsQuantity"`
	Price           float64            `json:"price"`
	PriceDiscount   *float64           `json:"priceDiscount,omitempty"`
	Summary         string             `json:"summary"`
	Description     string             `json:"description,omitempty"`
	ImageCover      string             `json:"imageCover"`
	Images          []string           `json:"images,omitempty"`
	StartDates      []time.Time        `json:"startDates,omitempty"`
	StartLocation   *models.Location   `json:"startLocation,omitempty"`
	Locations       []models.Location  `json:"locations,omitempty"`
	GuideIDs        []string           `json:"guides,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

func toTourResponse(tour models.Tour) tourResponse {
	return tourResponse{
		ID:              tour.ID,
		Name:            tour.Name,
		Slug:            tour.Slug,
		Duration:        tour.Duration,
		MaxGroupSize:    tour.MaxGroupSize,
		Difficulty:      string(tour.Difficulty),
		RatingsAverage:  tour.RatingsAverage,
		RatingsQuantity: tour.RatingsQuantity,
		Price:           tour.Price,
		PriceDiscount:   tour.PriceDiscount,
		Summary:         tour.Summary,
		Description:     tour.Description,
		ImageCover:      tour.ImageCover,
		Images:          tour.Images,
		StartDates:      tour.StartDates,
		StartLocation:   tour.StartLocation,
		Locations:       tour.Locations,
		GuideIDs:        tour.GuideIDs,
		CreatedAt:       tour.CreatedAt,
	}
}

func parseTourFilter(c *gin.Context) repository.TourFilter {
	filter := repository.TourFilter{
		Difficulty: c.Query("difficulty"),
		Sort:       c.Query("sort"),
	}
	if v, err := strconv.ParseFloat(c.Query("price[gte]"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("price[lte]"), 64); err == nil {
		filter.MaxPrice = &v
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = v
	}
	return filter
}

func (h HandlerSet) listTours(c *gin.Context, filter repository.TourFilter) {
	tours, err := h.tours.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]tourResponse, 0, len(tours))
	for _, tour := range tours {
		out = append(out, toTourResponse(tour))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"tours": out},
	})
}

func (h HandlerSet) ListTours(c *gin.Context) {
	h.listTours(c, parseTourFilter(c))
}

// TopCheapTours is the fixed "5 best cheap tours" alias.
func (h HandlerSet) TopCheapTours(c *gin.Context) {
	h.listTours(c, repository.TourFilter{
		Sort:  "price",
		Limit: 5,
	})
}

func (h HandlerSet) TourStats(c *gin.Context) {
	stats, err := h.tours.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"stats": stats},
	})
}

func (h HandlerSet) GetTour(c *gin.Context) {
	tour, err := h.tours.GetVisibleByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			fail(c, apperror.NotFound("No tour found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"tour": toTourResponse(tour)},
	})
}

type tourRequest struct {
	Name          string             `json:"name" binding:"required"`
	Duration      int                `json:"duration" binding:"required"`
	MaxGroupSize  int                `json:"maxGroupSize" binding:"required"`
	Difficulty    string             `json:"difficulty" binding:"required"`
	Price         float64            `json:"price" binding:"required"`
	PriceDiscount *float64           `json:"priceDiscount"`
	Summary       string             `json:"summary" binding:"required"`
	Description   string             `json:"description"`
	StartDates    []time.Time        `json:"startDates"`
	Secret        bool               `json:"secret"`
	StartLocation *models.Location   `json:"startLocation"`
	Locations     []models.Location  `json:"locations"`
	GuideIDs      []string           `json:"guides"`
}

func (h HandlerSet) CreateTour(c *gin.Context) {
	var req tourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	tour, err := h.tourService.Create(c.Request.Context(), service.TourInput{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		StartDates:    req.StartDates,
		Secret:        req.Secret,
		StartLocation: req.StartLocation,
		Locations:     req.Locations,
		GuideIDs:      req.GuideIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"tour": toTourResponse(tour)},
	})
}

type tourPatchRequest struct {
	Name          *string      `json:"name"`
	Duration      *int         `json:"duration"`
	MaxGroupSize  *int         `json:"maxGroupSize"`
	Difficulty    *string      `json:"difficulty"`
	Price         *float64     `json:"price"`
	PriceDiscount *float64     `json:"priceDiscount"`
	Summary       *string      `json:"summary"`
	Description   *string      `json:"description"`
	StartDates    *[]time.Time `json:"startDates"`
	Secret        *bool        `json:"secret"`
	GuideIDs      *[]string    `json:"guides"`
}

func (h HandlerSet) UpdateTour(c *gin.Context) {
	var req tourPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	tour, err := h.tourService.Update(c.Request.Context(), c.Param("id"), service.TourPatch{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		StartDates:    req.StartDates,
		Secret:        req.Secret,
		GuideIDs:      req.GuideIDs,
	})
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			fail(c, apperror.NotFound("No tour found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"tour": toTourResponse(tour)},
	})
}

func (h HandlerSet) DeleteTour(c *gin.Context) {
	if err := h.tours.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			fail(c, apperror.NotFound("No tour found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// UploadTourImages accepts multipart fields "imageCover" (single) and
// "images" (repeated).
func (h HandlerSet) UploadTourImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, apperror.BadRequest("Expected a multipart upload"))
		return
	}

	var cover *multipart.FileHeader
	if headers := form.File["imageCover"]; len(headers) > 0 {
		cover = headers[0]
	}
	gallery := form.File["images"]

	if err := h.mediaService.UploadTourImages(c.Request.Context(), c.Param("id"), cover, gallery); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
