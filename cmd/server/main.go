package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"formgate/config"
	"formgate/internal/backend"
	providercfg "formgate/internal/config"
	"formgate/internal/service"
	"formgate/internal/session"
	"formgate/internal/transport/rest"
	"formgate/internal/transport/ws"
)

// @title Form Response Gateway API
// @version 1.0
// @description Submission and access-control gateway in front of the form backend
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	log.Printf("Backend URL: %s", cfg.BackendBaseURL)

	// Redis connection (session store)
	redisAddr := cfg.RedisAddr
	// Remove redis:// prefix if present
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	var store session.Store
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: redis unreachable (%v), falling back to in-memory session store", err)
		store = session.NewMemoryStore()
	} else {
		log.Println("Connected to Redis")
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
	}

	// Backend client
	backendCli := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize services
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.SessionTTL, providercfg.DefaultProviderConfig())
	identitySvc := service.NewIdentityService(store)
	accessSvc := service.NewAccessService()
	detectorSvc := service.NewDetectorService(backendCli)
	draftSvc := service.NewDraftService(store)
	submitSvc := service.NewSubmitService(backendCli, draftSvc, accessSvc)
	flowSvc := service.NewFlowService(backendCli, identitySvc, accessSvc, detectorSvc, draftSvc, submitSvc)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	detectorSvc.SetBroadcaster(wsHub)
	submitSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:     authSvc,
		IdentityService: identitySvc,
		FlowService:     flowSvc,
		BackendClient:   backendCli,
		WSHub:           wsHub,
	}

	router := rest.NewRouter(container)

	port := cfg.HTTPPort
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/auth/logout")
		log.Println("  GET/DELETE /v1/forms/{formId}/view")
		log.Println("  POST /v1/forms/{formId}/prior")
		log.Println("  PUT  /v1/forms/{formId}/draft")
		log.Println("  POST /v1/forms/{formId}/submit")
		log.Println("  POST /v1/forms/{formId}/visit")
		log.Println("  WS   /v1/ws/forms/{formId}/owner")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
