package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/service/avatar"
	"github.com/taskhub/taskhub-api/internal/store"
)

// application holds the server's wired dependencies. Everything downstream
// of the config and database handle is constructed once here.
type application struct {
	config *config.Config
	logger *slog.Logger

	userStore  store.UserStore
	taskStore  store.TaskStore
	jwtService auth.JWTService

	userService service.UserService
	taskService service.TaskService
	avatars     *avatar.Processor
}

// newApplication builds the dependency graph: stores over the database
// handle, auth primitives from config, then the services on top.
func newApplication(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*application, error) {
	userStore := postgres.NewUserStore(db)
	taskStore := postgres.NewTaskStore(db)
	txRunner := store.NewSQLRunner(db)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	userService := service.NewUserService(
		userStore, taskStore, txRunner, hasher, hasher, jwtService, logger)
	taskService := service.NewTaskService(taskStore, logger)

	return &application{
		config:      cfg,
		logger:      logger,
		userStore:   userStore,
		taskStore:   taskStore,
		jwtService:  jwtService,
		userService: userService,
		taskService: taskService,
		avatars:     avatar.NewProcessor(),
	}, nil
}
