/*
Package handler provides the HTTP handler function for WebSocket connection upgrading
and initialization.

This file contains the HandleWebSocket function, which runs the authentication
handshake: the identity token travels with the upgrade request itself, is verified
before the upgrade, and only a verified connection ever reaches the signaling hub.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"voicelink/internal/app/signal"
	"voicelink/internal/pkg/auth/jwt"
	"voicelink/internal/pkg/errs"
	"voicelink/internal/pkg/limiter"
	"voicelink/internal/pkg/logx"
	"voicelink/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process signaling connection requests.
// A missing or invalid token terminates the attempt before the upgrade, with no
// presence mutation. Token presentation cannot stall the accept loop: the token rides
// on the upgrade request, which is bounded by the server's read timeout.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := jwt.TokenFromRequest(r)
		if token == "" {
			logx.Warn("WebSocket connection rejected: No identity token supplied.")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		identity, err := jwt.VerifyToken(token, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket connection rejected: Token verification failed.", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := signal.NewClient(deps.Hub, conn, identity.ID, identity.Name)

		go client.WritePump()

		logx.Info("WebSocket connection established", "user_id", identity.ID, "user_name", identity.Name)

		deps.Hub.Attach(client)

		client.ReadPump()
	}
}
