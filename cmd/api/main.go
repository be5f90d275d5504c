package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cleanmarket/internal/cache"
	"cleanmarket/internal/config"
	"cleanmarket/internal/database"
	"cleanmarket/internal/logging"
	"cleanmarket/internal/metrics"
	"cleanmarket/internal/middleware"
	"cleanmarket/internal/modules/booking"
	"cleanmarket/internal/modules/notification"
	"cleanmarket/internal/modules/payment"
	jwtsvc "cleanmarket/internal/pkg/jwt"
	"cleanmarket/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info", "console")
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	bookingRepo := repository.NewBookingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	if err := bookingRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("booking migration failed")
	}
	if err := notificationRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("notification migration failed")
	}

	// Redis is optional: with no address the cache degrades to
	// loader-only reads.
	redisClient := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient == nil {
		log.Warn().Msg("REDIS_ADDR not set, list caching disabled")
	}
	listCache := cache.New(redisClient, cfg.CacheTTL, log)

	metrics.Register()

	mailer, err := notification.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, log)
	if err != nil {
		log.Fatal().Err(err).Msg("mailer setup failed")
	}
	if mailer == nil {
		log.Warn().Msg("SMTP_HOST not set, email delivery disabled")
	}

	j := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)

	paymentService := payment.NewService(cfg.StripeSecretKey, log)
	paymentHandler := payment.NewHandler(paymentService)

	notificationService := notification.NewService(notificationRepo, mailer, log)
	notificationHandler := notification.NewHandler(notificationService)

	bookingService := booking.NewService(bookingRepo, paymentService, notificationService, listCache, log)
	bookingHandler := booking.NewHandler(bookingService)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			paymentHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
		}
	}

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
