package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/docs"
	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
}

// Stores bundles the persistence the HTTP layer depends on.
type Stores struct {
	Users      handler.UserStore
	Tasks      handler.TaskStore
	Categories repository.CategoryStore
}

func Init(cfg *config.Config) (*Server, error) {
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	gin.SetMode(cfg.GinMode)

	if err := database.Migrate(cfg.MigrationURL()); err != nil {
		return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
	}

	// Setup GORM
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	rdb, err := openRedis(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to configure Redis: %w", err)
	}

	// Initialize repositories
	categoryRepo := repository.NewCategoryCache(repository.NewCategoryRepository(db), rdb, cfg.CacheTTL)
	stores := Stores{
		Users:      repository.NewUserRepository(db),
		Tasks:      repository.NewTaskRepository(db),
		Categories: categoryRepo,
	}

	return &Server{
		Engine: NewRouter(stores, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)),
		DB:     db,
		Redis:  rdb,
		Config: cfg,
	}, nil
}

func openRedis(url string) (*redis.Client, error) {
	if url == "" {
		log.Println("⚠️  REDIS_URL is not set, category cache disabled")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("⚠️  Redis is unreachable, category cache will retry on demand")
	} else {
		log.Println("✅ Connected to Redis")
	}
	return client, nil
}

// NewRouter wires handlers to routes under /api.
func NewRouter(stores Stores, tokens *auth.TokenManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// Initialize handlers
	userHandler := handler.NewUserHandler(stores.Users, tokens)
	taskHandler := handler.NewTaskHandler(stores.Tasks, stores.Categories)
	categoryHandler := handler.NewCategoryHandler(stores.Categories)

	docs.SwaggerInfo.BasePath = "/api"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	// Public routes
	api.POST("/register", userHandler.Register)
	api.POST("/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := api.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	{
		// Task routes
		authorized.GET("/tasks", taskHandler.GetAll)
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)

		// Category routes
		authorized.GET("/categories", categoryHandler.GetAll)
		authorized.POST("/categories", categoryHandler.Create)
		authorized.GET("/categories/:id", categoryHandler.GetByID)
		authorized.PUT("/categories/:id", categoryHandler.Update)
		authorized.DELETE("/categories/:id", categoryHandler.Delete)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("✅ Server exited properly")
}
