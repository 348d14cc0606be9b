package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/thereayou/telemed-lite/internal/cache"
	"github.com/thereayou/telemed-lite/internal/database"
	"github.com/thereayou/telemed-lite/internal/handlers"
	ws "github.com/thereayou/telemed-lite/internal/websocket"
	"github.com/thereayou/telemed-lite/pkg/auth"
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	historyCache := cache.NewHistoryCache(rdb)
	signalingH := handlers.NewSignalingHandler(hub)
	chatH := handlers.NewChatHandler(hub, dbConn, historyCache)
	eventRouter := handlers.NewEventRouter(signalingH, chatH)
	wsH := handlers.NewWebSocketHandler(hub, eventRouter)

	// Тикеты проверяются только если задан секрет: выпуск тикетов —
	// зона внешнего сервиса записи
	var jwtMgr *auth.JWTManager
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		jwtMgr = auth.NewJWTManager(secret, 24*time.Hour)
	}

	router := gin.Default()
	APIEndpoints(router, wsH, jwtMgr)

	return &Server{
		Router: router,
		DB:     dbConn,
		Redis:  rdb,
		Hub:    hub,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.Router,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server run error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	s.Hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
