package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	apicontrollers "github.com/kodechat/chatbot/internal/api/controllers"
	apiwebsocket "github.com/kodechat/chatbot/internal/api/websocket"
	"github.com/kodechat/chatbot/internal/domain/events"
	"github.com/kodechat/chatbot/internal/domain/interfaces"
	"github.com/kodechat/chatbot/internal/domain/services"
	"github.com/kodechat/chatbot/internal/impl/config"
	"github.com/kodechat/chatbot/internal/impl/integrations"
	repositoriesJson "github.com/kodechat/chatbot/internal/impl/repositories/json"
	repositoriesMongo "github.com/kodechat/chatbot/internal/impl/repositories/mongo"
	"github.com/kodechat/chatbot/internal/infrastructure/database"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.InitConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	var store interfaces.ConversationStore
	if cfg.MongoURI != "" {
		db, err := database.NewMongoDB(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer db.Disconnect(context.Background())

		mongoStore := repositoriesMongo.NewMongoConversationStore(db.Collection("conversations"))
		if err := mongoStore.EnsureIndexes(context.Background()); err != nil {
			logger.Fatal("Failed to create indexes", zap.Error(err))
		}
		store = mongoStore
	} else {
		jsonStore, err := repositoriesJson.NewJSONConversationStore(cfg.DataDir)
		if err != nil {
			logger.Fatal("Failed to initialize JSON store", zap.Error(err))
		}
		store = jsonStore
		logger.Info("Using JSON file store", zap.String("data_dir", cfg.DataDir))
	}

	generator, err := integrations.NewOpenAIIntegration(
		cfg.GenerateURL, cfg.GenerateAPIKey, cfg.GenerateModel, cfg.GenerateTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize generation backend", zap.Error(err))
	}

	conversationService := services.NewConversationService(store, logger)
	engine := services.NewDialogueEngine(services.PromptOptions{
		MaxTurns:        cfg.MaxTurns,
		MaxPromptTokens: cfg.MaxPromptTokens,
	}, logger)
	chatService := services.NewChatService(conversationService, engine, generator, services.RetryPolicy{
		MaxRetries:        cfg.MaxRetries,
		BackoffBase:       cfg.BackoffBase,
		BackoffMultiplier: cfg.BackoffMultiplier,
	}, logger)

	// Live message streaming
	hub := apiwebsocket.NewChatHub(logger)
	go hub.Run()
	unsubscribe := events.SubscribeToTurnEvents(func(data events.TurnEventData) {
		hub.TurnListener(data.ConversationID, data.Messages)
	})
	defer unsubscribe()

	chatController := apicontrollers.NewChatController(logger, chatService, conversationService)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// API Routes
	api := e.Group("/api/v1")
	chatController.RegisterRoutes(api)

	// Websocket route
	e.GET("/ws/chat", hub.Handler(conversationService))

	e.GET("/", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{
			"message": "Welcome to the Chatbot API!",
		})
	})
	e.GET("/health", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]any{
			"status":            "healthy",
			"mongo_configured":  cfg.MongoURI != "",
			"openai_configured": cfg.GenerateAPIKey != "",
		})
	})

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", cfg.ServerAddress))
		if err := e.Start(cfg.ServerAddress); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}
