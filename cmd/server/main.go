package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gtrack/backend/internal/config"
	"github.com/gtrack/backend/internal/handler"
	"github.com/gtrack/backend/internal/mail"
	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/notify"
	"github.com/gtrack/backend/internal/router"
	"github.com/gtrack/backend/internal/service"
	"github.com/gtrack/backend/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// Database
	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Project{},
		&model.ProjectMember{},
		&model.ProjectAttachment{},
		&model.Issue{},
		&model.IssueMember{},
		&model.Comment{},
		&model.Attachment{},
		&model.Notification{},
		&model.EmailOTP{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	// Redis (OTP request throttle)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// File storage
	store, err := storage.NewLocalStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}

	// Mail sender
	var sender mail.Sender
	if cfg.SMTP.Enabled {
		sender = mail.NewSMTPSender(cfg.SMTP, logger)
	} else {
		sender = mail.NoopSender{Logger: logger}
	}

	// Role directory and notification fanout
	directory := service.NewDirectoryService(db)
	fanout := notify.NewEngine(db, directory, logger)

	// Services
	limiter := service.NewRedisOTPLimiter(rdb, cfg.OTP.MaxRequestsPerHour)
	otpService := service.NewOTPService(db, directory, sender, limiter, logger,
		cfg.OTP.AllowedDomains, cfg.JWT.Secret, cfg.JWT.ExpireHours)
	userService := service.NewUserService(db, sender, logger,
		cfg.OTP.AllowedDomains, cfg.OTP.LoginURL)
	projectService := service.NewProjectService(db, directory, fanout)
	issueService := service.NewIssueService(db, directory, fanout)
	notificationService := service.NewNotificationService(db)

	// Handlers
	authHandler := handler.NewAuthHandler(otpService)
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService, issueService, store)
	issueHandler := handler.NewIssueHandler(issueService, projectService, store)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	dashboardHandler := handler.NewDashboardHandler(projectService, issueService, notificationService)

	// Gin engine
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Setup routes
	router.Setup(r, router.Deps{
		DB:                  db,
		JWTSecret:           cfg.JWT.Secret,
		AuthHandler:         authHandler,
		UserHandler:         userHandler,
		ProjectHandler:      projectHandler,
		IssueHandler:        issueHandler,
		NotificationHandler: notificationHandler,
		DashboardHandler:    dashboardHandler,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server run: %v", err)
	}
}
