package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"realtime/internal/api"
	"realtime/internal/metrics"
	"realtime/internal/routers"
	"realtime/internal/services"
	"realtime/internal/utils"
)

var (
	defaultRedisAddr = "redis:6379"
	defaultPort      = "8080"

	listenAndServe = http.ListenAndServe
	exit           = os.Exit
	exitFunc       = defaultExit
)

func defaultExit(err error) {
	log.Printf("realtime-svc exited: %v", err)
	exit(1)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func run(ctx context.Context) error {
	logger := utils.NewLogger()
	defer logger.Sync()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = defaultRedisAddr
	}

	notifier := services.NewNotifier(redisAddr, logger)
	h := api.NewHandlers(logger, notifier)

	// Fan cross-service notifications out to local rooms in the background.
	go notifier.Subscribe(ctx, h.DeliverNotification)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	r.Use(metrics.Middleware("realtime"))

	r.Mount("/", routers.New(h))

	r.Get("/healthz", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	addr := ":" + port
	log.Printf("realtime-svc listening on %s", addr)
	return listenAndServe(addr, r)
}

func main() {
	if err := run(context.Background()); err != nil {
		exitFunc(err)
	}
}
