package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/academy-ops-api/api/swagger"
	"github.com/noah-isme/academy-ops-api/internal/gateway"
	"github.com/noah-isme/academy-ops-api/internal/handler"
	"github.com/noah-isme/academy-ops-api/internal/middleware"
	"github.com/noah-isme/academy-ops-api/internal/models"
	"github.com/noah-isme/academy-ops-api/internal/repository"
	"github.com/noah-isme/academy-ops-api/internal/service"
	"github.com/noah-isme/academy-ops-api/pkg/cache"
	"github.com/noah-isme/academy-ops-api/pkg/config"
	"github.com/noah-isme/academy-ops-api/pkg/database"
	"github.com/noah-isme/academy-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-ops-api/pkg/middleware/requestid"
)

// @title Academy Ops API
// @version 1.0.0
// @description Capacity-bound enrollment, waitlist promotion and payment reconciliation for academies
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	academyRepo := repository.NewAcademyRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lectureRepo := repository.NewLectureRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	paymentGateway := gateway.NewHTTPGateway(cfg.Payment, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(employeeRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	waitlistSvc := service.NewWaitlistService(academyRepo, employeeRepo, waitlistRepo,
		enrollmentRepo, studentRepo, lectureRepo, cacheRepo, cfg.Waitlist.CountCacheTTL, metricsSvc, validate, logr)
	admissionSvc := service.NewAdmissionService(academyRepo, employeeRepo, admissionRepo,
		enrollmentRepo, studentRepo, lectureRepo, waitlistSvc, validate, logr)
	discountSvc := service.NewDiscountService(academyRepo, employeeRepo, discountRepo,
		enrollmentRepo, validate, logr)
	paymentSvc := service.NewPaymentService(academyRepo, employeeRepo, paymentRepo,
		enrollmentRepo, lectureRepo, paymentGateway,
		service.PaymentURLs{SuccessURL: cfg.Payment.SuccessURL, FailURL: cfg.Payment.FailURL},
		cfg.Payment.ConfirmTimeout, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(admissionSvc, metricsSvc)
	waitlistHandler := handler.NewWaitlistHandler(waitlistSvc)
	discountHandler := handler.NewDiscountHandler(discountSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	// Gateway webhooks authenticate by order ID, not by staff token.
	api.POST("/payments/verify", paymentHandler.Verify)
	api.POST("/payments/fail", paymentHandler.Fail)
	api.POST("/payments/cancel", paymentHandler.Cancel)

	staffOnly := middleware.RequireRoles(models.RoleDirector, models.RoleManager)

	academies := api.Group("/academies/:academyId", middleware.JWT(authSvc))
	{
		academies.GET("/enrollments", enrollmentHandler.List)
		academies.POST("/lectures/:lectureId/enrollments", staffOnly, enrollmentHandler.Enroll)
		academies.DELETE("/enrollments/:enrollmentId", staffOnly, enrollmentHandler.Cancel)

		academies.GET("/waitlist", waitlistHandler.List)
		academies.GET("/lectures/:lectureId/waitlist/count", waitlistHandler.Count)
		academies.POST("/lectures/:lectureId/waitlist", staffOnly, waitlistHandler.Enqueue)
		academies.DELETE("/waitlist/:entryId", staffOnly, waitlistHandler.Withdraw)

		academies.GET("/enrollments/:enrollmentId/discount", discountHandler.GetApplied)
		academies.PUT("/enrollments/:enrollmentId/discount", staffOnly, discountHandler.Apply)

		academies.POST("/payments", staffOnly, paymentHandler.Request)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
