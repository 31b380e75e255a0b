package api

import (
	"net/http"
	"time"

	"pulseid/internal/api/handler"
	"pulseid/internal/app/service"
	"pulseid/internal/common/security"
	"pulseid/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	userRepo repository.UserRepository,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// The SPA runs on another origin during development.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// JWT Auth Middleware Setup
	// It will search for a token in "Authorization: Bearer T".
	r.Use(jwtauth.Verifier(security.TokenAuth)) // Verifies token, puts claims in context

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// The original SPA talks to /api/users/*.
	r.Route("/api/users", func(users chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		authHandler.RegisterRoutes(users)

		userHandler := handler.NewUserHandler(userService, userRepo)
		userHandler.RegisterRoutes(users)
	})

	return r
}
