package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/go-commerce-api/internal/application/device"
	"github.com/go-commerce-api/internal/application/notification"
	"github.com/go-commerce-api/internal/application/push"
	"github.com/go-commerce-api/internal/application/session"
	"github.com/go-commerce-api/internal/application/user"
	"github.com/go-commerce-api/internal/config"
	"github.com/go-commerce-api/internal/domain"
	"github.com/go-commerce-api/internal/infrastructure/dynamo"
	fcminfra "github.com/go-commerce-api/internal/infrastructure/fcm"
	jwtinfra "github.com/go-commerce-api/internal/infrastructure/jwt"
	"github.com/go-commerce-api/internal/transport/http/handler"
	appmiddleware "github.com/go-commerce-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	NotificationRepo *dynamo.NotificationRepo
	PushGateway      *fcminfra.Gateway
	JWTProvider      *jwtinfra.Provider
	Orchestrator     *push.Orchestrator
}

// NewRouter builds and returns the application router. It also wires the
// fan-out orchestrator into deps so main can drain it on shutdown.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifSvc := notification.NewService(deps.NotificationRepo)
	deviceSvc := device.NewService(deps.UserRepo, notifSvc)
	sessionSvc := session.NewService(deps.SessionRepo, deps.UserRepo, deps.JWTProvider, cfg.RefreshTokenTTL)
	userSvc := user.NewService(deps.UserRepo)

	var gateway push.Gateway
	if deps.PushGateway != nil {
		gateway = deps.PushGateway
	}
	dispatcher := push.NewDispatcher(gateway)
	resolver := push.NewResolver(deps.UserRepo)
	orchestrator := push.NewOrchestrator(notifSvc, deviceSvc, resolver, dispatcher)
	deps.Orchestrator = orchestrator

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	deviceH := handler.NewDeviceHandler(deviceSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	pushH := handler.NewPushHandler(orchestrator)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			// Any authenticated user
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Post("/devices/register", deviceH.Register)
			r.Get("/notifications", notifH.List)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{notificationID}/read", notifH.MarkRead)
			r.Delete("/notifications", notifH.DeleteAll)
			r.Post("/notifications/delete-selected", notifH.DeleteSelected)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Delete("/users/{id}", userH.Delete)

				r.Post("/notifications/send", pushH.Send)
				r.Post("/notifications/broadcast", pushH.Broadcast)
			})
		})
	})

	return r
}
