package handler

import (
	"voicelink/internal/app/db"
	"voicelink/internal/app/signal"
	"voicelink/internal/configs"
)

// AppDeps bundles the shared dependencies the HTTP handlers need.
type AppDeps struct {
	Hub    *signal.Hub
	Config *configs.AppConfig
	Store  *db.Store
}
