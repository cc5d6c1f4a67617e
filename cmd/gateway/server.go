package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stillwaterhq/stillwater/internal/authflow"
	"github.com/stillwaterhq/stillwater/internal/config"
	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/logging"
	"github.com/stillwaterhq/stillwater/internal/metrics"
	"github.com/stillwaterhq/stillwater/internal/middleware"
	"github.com/stillwaterhq/stillwater/internal/securestore"
	"github.com/stillwaterhq/stillwater/internal/streak"
)

type serverDeps struct {
	cfg          *config.Config
	logger       *logging.Logger
	metrics      *metrics.Metrics
	repo         *database.Repository
	tracker      *streak.Tracker
	bootstrapper *authflow.Bootstrapper
	vault        *securestore.Migrating
}

// Paths that bypass JWT authentication.
var publicPaths = []string{
	"/health",
	"/metrics",
	"/api/v1/auth/callback",
}

func newServer(deps serverDeps) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.RecoveryMiddleware(deps.logger))
	r.Use(middleware.LoggingMiddleware(deps.logger))
	r.Use(middleware.MetricsMiddleware("gateway", deps.metrics))
	// Auth runs before the rate limiter so authenticated traffic is throttled
	// per user, not per source address.
	r.Use(middleware.NewAuthMiddleware([]byte(deps.cfg.Supabase.JWTSecret), deps.logger, publicPaths).Handler)
	r.Use(middleware.NewRateLimiter(deps.cfg.Server.RequestsPerSecond, deps.cfg.Server.RateBurst, deps.logger).Handler)

	r.HandleFunc("/health", healthHandler()).Methods("GET")
	r.Handle("/metrics", deps.metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/callback", authCallbackHandler(deps.bootstrapper)).Methods("POST")

	api.HandleFunc("/profile", getProfileHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/profile", createProfileHandler(deps.repo)).Methods("POST")
	api.HandleFunc("/profile", updateProfileHandler(deps.repo)).Methods("PATCH")
	api.HandleFunc("/streak", streakHandler(deps.repo, deps.tracker)).Methods("GET")

	api.HandleFunc("/slipups", listSlipUpsHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/slipups", createSlipUpHandler(deps.repo)).Methods("POST")

	api.HandleFunc("/tasks", listTasksHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/tasks", createTaskHandler(deps.repo)).Methods("POST")
	api.HandleFunc("/tasks/{id}", getTaskHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/tasks/{id}/status", updateTaskStatusHandler(deps.repo)).Methods("PATCH")
	api.HandleFunc("/tasks/{id}", deleteTaskHandler(deps.repo)).Methods("DELETE")

	api.HandleFunc("/invites", listInvitesHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/invites", createInviteHandler(deps.repo)).Methods("POST")
	api.HandleFunc("/invites/redeem", redeemInviteHandler(deps.repo, deps.logger)).Methods("POST")
	api.HandleFunc("/invites/{id}/revoke", revokeInviteHandler(deps.repo)).Methods("POST")

	api.HandleFunc("/relationships", listRelationshipsHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/relationships/{id}/consent", setConsentHandler(deps.repo)).Methods("PATCH")
	api.HandleFunc("/relationships/{id}", endRelationshipHandler(deps.repo)).Methods("DELETE")

	api.HandleFunc("/steps", listStepsHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/steps/progress", listStepProgressHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/steps/progress", upsertStepProgressHandler(deps.repo)).Methods("PUT")
	api.HandleFunc("/prayers", listPrayersHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/meetings", listMeetingsHandler(deps.repo)).Methods("GET")
	api.HandleFunc("/meetings", createMeetingHandler(deps.repo)).Methods("POST")

	api.HandleFunc("/vault/{key}", getVaultHandler(deps.vault)).Methods("GET")
	api.HandleFunc("/vault/{key}", putVaultHandler(deps.vault)).Methods("PUT")
	api.HandleFunc("/vault/{key}", deleteVaultHandler(deps.vault)).Methods("DELETE")

	// CORS wraps the router from the outside: mux only runs Use middleware on
	// matched routes, and no route registers OPTIONS, so preflights must be
	// answered before route matching.
	return middleware.NewCORSMiddleware(deps.cfg.Server.CORSOrigins).Handler(r)
}
