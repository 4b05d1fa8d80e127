package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/neuraforge/collab-gateway/internal/api/handlers"
	"github.com/neuraforge/collab-gateway/internal/api/middleware"
	"github.com/neuraforge/collab-gateway/internal/config"
	"github.com/neuraforge/collab-gateway/internal/service"
	"github.com/neuraforge/collab-gateway/internal/websocket"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg))

	r.Get("/health", handlers.Health)

	authHandler := handlers.NewAuthHandler(services.Auth)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, cfg)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Get("/profile", authHandler.Profile)
		})
	})

	// Real-time gateway
	r.Get("/ws", wsHandler.Handle)

	return r
}
