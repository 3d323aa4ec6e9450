/*
Package handler provides the HTTP handlers and routing setup for the VoiceLink server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and
WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"voicelink/internal/pkg/limiter"
	"voicelink/internal/pkg/logx"
	"voicelink/internal/pkg/resp"
)

const (
	AuthRate  = 0.2
	AuthBurst = 5
	WsRate    = 0.2
	WsBurst   = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and
// per-route middleware.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	wsLimiter := limiter.NewIPRateLimiter(rate.Limit(WsRate), WsBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "VoiceLink Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Use(authLimiter.Middleware)
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
			auth.Post("/logout", HandleLogout(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, wsLimiter, deps))

	return r
}
