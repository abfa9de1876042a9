package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"formgate/internal/backend"
	"formgate/internal/service"
	"formgate/internal/transport/rest/handler"
	"formgate/internal/transport/rest/middleware"
	"formgate/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	IdentityService *service.IdentityService
	FlowService     *service.FlowService
	BackendClient   *backend.Client
	WSHub           *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	formHandler := handler.NewFormHandler(c.FlowService, c.BackendClient)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	identityMW := middleware.NewIdentityMiddleware(c.AuthService, c.IdentityService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes; identity is resolved for every call but never required
	// here. Access decisions belong to the policy evaluator.
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(identityMW.Resolve)

	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	v1.HandleFunc("/forms/{formId}/view", formHandler.View).Methods("GET", "OPTIONS")
	v1.HandleFunc("/forms/{formId}/view", formHandler.Abandon).Methods("DELETE", "OPTIONS")
	v1.HandleFunc("/forms/{formId}/prior", formHandler.ResolvePrior).Methods("POST", "OPTIONS")
	v1.HandleFunc("/forms/{formId}/draft", formHandler.SaveDraft).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/forms/{formId}/submit", formHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/forms/{formId}/visit", formHandler.Visit).Methods("POST", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/forms/{formId}/owner", wsHandler.OwnerWS).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization, X-Session-Id"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
