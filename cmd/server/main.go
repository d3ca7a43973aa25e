package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/pjt3591oo/chat-go/internal/cache"
	"github.com/pjt3591oo/chat-go/internal/handlers"
	"github.com/pjt3591oo/chat-go/internal/handlers/ws"
	"github.com/pjt3591oo/chat-go/internal/middleware"
	"github.com/pjt3591oo/chat-go/internal/repository"
	"github.com/pjt3591oo/chat-go/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "chat-go",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	chatCache := cache.NewChatCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize services
	chatService := service.NewChatService(db, chatRepo, membershipRepo, userRepo)
	sendCoordinator := service.NewSendCoordinator(db, chatRepo, messageRepo, membershipRepo)
	readTracker := service.NewReadTracker(db, messageRepo, membershipRepo)

	// Initialize handlers
	hub := ws.NewHub()
	wsHandler := handlers.NewWebSocketHandler(hub)
	chatHandler := handlers.NewChatHandler(chatService, chatCache)
	messageHandler := handlers.NewMessageHandler(sendCoordinator, readTracker, chatService, chatCache, hub)

	// Protected routes
	api := app.Group("/api", middleware.AuthRequired())
	api.Post("/chats", chatHandler.CreateChat)
	api.Get("/chats", chatHandler.GetChats)
	api.Post("/chats/:id/members", chatHandler.AddMember)
	api.Get("/chats/:id/messages", messageHandler.GetMessages)
	api.Get("/chats/:id/messages/sync", messageHandler.SyncMessages)
	api.Post(
		"/chats/:id/messages",
		limiter.New(limiter.Config{
			Max:        120,
			Expiration: time.Minute,
		}),
		messageHandler.SendMessage,
	)
	api.Post("/chats/:id/read", messageHandler.MarkRead)
	api.Get("/chats/:id/read-state", messageHandler.GetReadState)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Fatal(app.Listen(":" + port))
}
