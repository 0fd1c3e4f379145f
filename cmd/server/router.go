package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskhub/taskhub-api/internal/api"
	apimiddleware "github.com/taskhub/taskhub-api/internal/api/middleware"
)

// setupRouter configures all routes and middleware. The avatar fetch route
// is deliberately public; every other user and task route requires a valid
// bearer token.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	userHandler := api.NewUserHandler(app.userService, app.avatars)
	taskHandler := api.NewTaskHandler(app.taskService)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService, app.userStore)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Get("/{id}/avatar", userHandler.GetAvatar)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/logout", userHandler.Logout)
			r.Post("/logoutAll", userHandler.LogoutAll)
			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.UpdateMe)
			r.Delete("/me", userHandler.DeleteMe)
			r.Post("/me/avatar", userHandler.UploadAvatar)
			r.Delete("/me/avatar", userHandler.DeleteAvatar)
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.Get("/{id}", taskHandler.Get)
		r.Patch("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
