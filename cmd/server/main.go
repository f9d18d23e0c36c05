package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"foodslink_backend/internal/database"
	"foodslink_backend/internal/messaging"
	"foodslink_backend/internal/middleware"
	router_pkg "foodslink_backend/internal/router"
	"foodslink_backend/internal/services"
	"foodslink_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize Logger
	utils.InitLogger()

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "foodslink_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "foodslink_password")
	dbName := utils.Getenv("DB_NAME", "foodslink_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	// Initialize Database
	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized", map[string]interface{}{"configured_from_env": true})

	// Redis backs the table session registry
	redisClient := redis.NewClient(&redis.Options{
		Addr: utils.Getenv("REDIS_ADDR", "localhost:6379"),
	})

	// Order events fan out to the SSE hub and, when configured, to RabbitMQ.
	hub := messaging.NewHub()
	notifiers := []services.OrderNotifier{hub}
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		publisher, err := messaging.NewPublisher(amqpURL)
		if err != nil {
			utils.LogError(err, "Broker unavailable, continuing with polling and SSE only")
		} else {
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
			utils.LogInfo("Order event publisher connected", map[string]interface{}{"exchange": "order_events_fanout"})
		}
	}
	notifier := messaging.NewCompositeNotifier(notifiers...)

	router := gin.Default()

	// Request correlation and request logging middleware
	router.Use(middleware.RequestID())
	router.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"} // Default origins
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-Id"}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Setup all application routes
	dbConn := database.GetDB()
	router_pkg.Setup(router, dbConn, redisClient, hub, notifier)

	// Server port configuration
	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port, "configured_from_env": true})

	if err := router.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
