package main

import (
	_ "taskboard/docs"
	"taskboard/internal/config"
	"taskboard/internal/server"

	log "github.com/sirupsen/logrus"
)

// @title           Taskboard API
// @version         1.0
// @description     Personal tasks grouped into categories.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
