package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trailbook/api/internal/config"
	"trailbook/api/internal/email"
	"trailbook/api/internal/middleware"
	"trailbook/api/internal/models"
	"trailbook/api/internal/payments"
	"trailbook/api/internal/repository"
	"trailbook/api/internal/service"
	"trailbook/api/internal/storage"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	db             *pgxpool.Pool
	cache          *redis.Client
	users          *repository.UserRepository
	tours          *repository.TourRepository
	reviews        *repository.ReviewRepository
	bookings       *repository.BookingRepository
	authService    *service.AuthService
	tourService    *service.TourService
	reviewService  *service.ReviewService
	bookingService *service.BookingService
	mediaService   *service.MediaService
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	tourRepo := repository.NewTourRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	mailer := email.NewMailer(cfg.Email)
	checkout := payments.NewClient(cfg.Payments)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		db:             db,
		cache:          cache,
		users:          userRepo,
		tours:          tourRepo,
		reviews:        reviewRepo,
		bookings:       bookingRepo,
		authService:    service.NewAuthService(userRepo, mailer, cfg, log),
		tourService:    service.NewTourService(tourRepo),
		reviewService:  service.NewReviewService(reviewRepo, tourRepo, log),
		bookingService: service.NewBookingService(bookingRepo, tourRepo, checkout, cfg, log),
		mediaService:   service.NewMediaService(tourRepo, store, log),
	}
}

// fail routes an error into the normalizer middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func (h HandlerSet) Register(engine *gin.Engine) {
	secret := h.cfg.Security.JWTSecret
	requireAuth := middleware.RequireAuth(secret, h.users)
	optionalAuth := middleware.OptionalAuth(secret, h.users)
	staffOnly := middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleLeadGuide)
	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)

	// Rendered pages.
	engine.GET("/", optionalAuth, h.Overview)
	engine.GET("/tour/:slug", optionalAuth, h.TourPage)
	engine.GET("/login", optionalAuth, h.LoginPage)
	engine.GET("/signup", optionalAuth, h.SignupPage)
	engine.GET("/me", requireAuth, h.AccountPage)
	engine.GET("/my-tours", requireAuth, h.MyToursPage)

	// The payment provider authenticates by HMAC signature and its event
	// payloads exceed the JSON body cap, so the webhook mounts outside the
	// rate-limited, size-capped API group.
	engine.POST("/api/v1/bookings/webhook-checkout", h.CheckoutWebhook)

	api := engine.Group("/api",
		middleware.RateLimit(h.cache, h.cfg.RateLimit, h.log),
		middleware.BodyLimit(10<<10),
	)
	api.GET("/healthz", h.Health)

	v1 := api.Group("/v1")

	tours := v1.Group("/tours")
	{
		tours.GET("", h.ListTours)
		tours.GET("/top-5-cheap", h.TopCheapTours)
		tours.GET("/stats", h.TourStats)
		tours.GET("/:id", h.GetTour)
		tours.GET("/:id/reviews", h.ListTourReviews)
		tours.POST("/:id/reviews", requireAuth, middleware.RequireRoles(models.UserRoleUser), h.CreateReview)

		tours.POST("", requireAuth, staffOnly, h.CreateTour)
		tours.PATCH("/:id", requireAuth, staffOnly, h.UpdateTour)
		tours.DELETE("/:id", requireAuth, staffOnly, h.DeleteTour)
		tours.PUT("/:id/images", requireAuth, staffOnly, h.UploadTourImages)
	}

	users := v1.Group("/users")
	{
		users.POST("/signup", h.Signup)
		users.POST("/login", h.Login)
		users.GET("/logout", h.Logout)
		users.POST("/forgotPassword", h.ForgotPassword)
		users.PATCH("/resetPassword/:token", h.ResetPassword)

		users.PATCH("/updateMyPassword", requireAuth, h.UpdateMyPassword)
		users.GET("/me", requireAuth, h.Me)
		users.PATCH("/updateMe", requireAuth, h.UpdateMe)
		users.DELETE("/deleteMe", requireAuth, h.DeleteMe)

		users.GET("", requireAuth, adminOnly, h.ListUsers)
		users.GET("/:id", requireAuth, adminOnly, h.GetUser)
		users.PATCH("/:id", requireAuth, adminOnly, h.UpdateUserRole)
		users.DELETE("/:id", requireAuth, adminOnly, h.DeactivateUser)
	}

	reviews := v1.Group("/reviews", requireAuth)
	{
		reviews.PATCH("/:id", h.UpdateReview)
		reviews.DELETE("/:id", h.DeleteReview)
	}

	bookings := v1.Group("/bookings")
	{
		bookings.GET("/checkout-session/:tourId", requireAuth, h.CheckoutSession)
		bookings.GET("/my", requireAuth, h.MyBookings)

		bookings.GET("", requireAuth, staffOnly, h.ListBookings)
		bookings.GET("/:id", requireAuth, staffOnly, h.GetBooking)
		bookings.PATCH("/:id", requireAuth, staffOnly, h.UpdateBooking)
		bookings.DELETE("/:id", requireAuth, staffOnly, h.DeleteBooking)
	}
}
