package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"drawboard/internal/api"
	"drawboard/internal/board"
	"drawboard/internal/relay"
	"drawboard/internal/routers"
	"drawboard/internal/session"
	"drawboard/internal/utils"
)

var (
	defaultPort      = "8080"
	defaultRedisAddr = "" // empty disables the cross-instance relay
	defaultStaticDir = ""

	listenAndServe = http.ListenAndServe
	exitFunc       = defaultExit
	exit           = os.Exit
)

func defaultExit(err error) {
	log.Println("drawboard-svc terminated:", err)
	exit(1)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func run(_ context.Context) error {
	logger := utils.NewLogger()
	store := board.NewStore()
	hub := session.NewHub()

	var rl *relay.Relay
	if redisAddr := envOr("REDIS_ADDR", defaultRedisAddr); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		rl = relay.New(rdb, store, hub, logger)
		rl.Start()
		defer rl.Close()
		logger.Info("relay enabled", "redis", redisAddr, "instance", rl.InstanceID())
	}

	h := api.NewHandlers(logger, store, hub, rl)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Get("/healthz", healthHandler)
	r.Mount("/", routers.New(h, envOr("STATIC_DIR", defaultStaticDir)))

	addr := ":" + envOr("PORT", defaultPort)
	log.Printf("drawboard-svc listening on %s", addr)
	return listenAndServe(addr, r)
}

func main() {
	if err := run(context.Background()); err != nil {
		exitFunc(err)
	}
}
