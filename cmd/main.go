package main

import (
	"log/slog"
	"os"
	"time"

	httpapi "github.com/immxrtalbeast/collabdocs/internal/api/http"
	"github.com/immxrtalbeast/collabdocs/internal/config"
	"github.com/immxrtalbeast/collabdocs/internal/repository"
	"github.com/immxrtalbeast/collabdocs/internal/repository/model"
	"github.com/immxrtalbeast/collabdocs/internal/service"
	"github.com/immxrtalbeast/collabdocs/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	var docRepo repository.DocumentRepository
	var userRepo repository.UserRepository

	if cfg.Database.DSN == "" {
		log.Warn("database dsn is empty, using in-memory repositories")
		docRepo = repository.NewInMemoryDocumentRepository()
		userRepo = repository.NewInMemoryUserRepository()
	} else {
		db, err := connectDatabase(cfg.Database)
		if err != nil {
			log.Error("failed to connect database", slog.Any("error", err))
			os.Exit(1)
		}
		docRepo = repository.NewPostgresDocumentRepository(db)
		userRepo = repository.NewPostgresUserRepository(db)
	}

	realtimeService := service.NewRealtimeService(docRepo, log)
	documentService := service.NewDocumentService(docRepo, log)
	userService := service.NewUserService(userRepo, log, cfg.Auth.Secret, cfg.Auth.TokenTTL)

	userController := httpapi.NewUserController(userService, int(cfg.Auth.TokenTTL.Seconds()))
	documentController := httpapi.NewDocumentController(documentService)
	realtimeController := httpapi.NewRealtimeController(realtimeService, documentService)

	router := httpapi.SetupRouter(userService, userController, documentController, realtimeController, cfg.HTTP.AllowedOrigins)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&model.Document{}, &model.SharedLink{}, &model.SharedWith{}, &model.User{})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
