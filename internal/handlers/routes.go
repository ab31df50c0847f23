package handlers

import (
	"net/http"
	"time"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts    AccountService
	Sessions    SessionManager
	Users       UserStore
	Videos      VideoStore
	Ingestor    VideoIngestor
	VideoAssets AssetResolver
	ThumbAssets AssetResolver
	AuthLimiter RateLimiter

	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Accounts: deps.Accounts, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	admin := AdminHandler{Users: deps.Users, Videos: deps.Videos, Sessions: deps.Sessions}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Ingestor:       deps.Ingestor,
		VideoAssets:    deps.VideoAssets,
		ThumbAssets:    deps.ThumbAssets,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/register", auth.Register)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/videos", videos.List)
	mux.HandleFunc("/api/v1/videos/{id}", videos.Detail)
	mux.HandleFunc("/api/v1/videos/{id}/stream", videos.Stream)
	mux.HandleFunc("/api/v1/videos/{id}/thumbnail", videos.Thumbnail)
	mux.HandleFunc("/api/v1/admin", admin.Dashboard)
	mux.HandleFunc("/api/v1/admin/users/{id}", admin.DeleteUser)
}
