package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"homexa/internal/adapter/api"
	"homexa/internal/adapter/api/handler"
	apimiddleware "homexa/internal/adapter/api/middleware"
	"homexa/internal/adapter/api/router"
	"homexa/internal/adapter/repository"
	"homexa/internal/domain/entity"
	"homexa/internal/infrastructure/ratelimit"
	"homexa/internal/infrastructure/storage"
	"homexa/internal/infrastructure/websocket"
	"homexa/internal/usecase"
	"homexa/pkg/config"
	"homexa/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(logger.RotationConfig{
		Directory:  cfg.Log.Directory,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx := context.Background()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to access database pool: %v", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Product{},
		&entity.Chat{},
		&entity.Message{},
		&entity.MessageAttachment{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	userRepo := repository.NewGormUserRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	chatRepo := repository.NewGormChatRepository(db)

	fileStorage, err := storage.NewLocalStorage(cfg.Upload.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	connLimiter := ratelimit.NewConnectionLimiter()
	connLimiter.StartCleanupRoutine()

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, productRepo, wsManager, fileStorage)

	handler.SetupHealthHandler(db)
	handler.SetupDevTokenHandler(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second, userRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(cfg.JWTSecret)

	chatHandler := handler.NewChatHandler(chatUseCase, fileStorage)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, connLimiter, cfg.WSAllowedOrigins)

	router.Setup(e, cfg.Environment)
	router.SetupChatRouter(e, chatHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	// Serve uploaded attachment files
	e.Static("/uploads", cfg.Upload.Dir)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
