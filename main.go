package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"creator-messaging/internal/config"
	"creator-messaging/internal/db"
	"creator-messaging/internal/handlers"
	"creator-messaging/internal/media"
	"creator-messaging/internal/messaging"
	"creator-messaging/internal/middleware"
	"creator-messaging/internal/observability"
	"creator-messaging/internal/publicid"
	"creator-messaging/internal/rabbitmq"
	"creator-messaging/internal/repositories"
	"creator-messaging/internal/storage"
	"creator-messaging/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	store, err := storage.NewS3Store(ctx, cfg.StorageBucket)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, "creator-messaging")
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, "creator-messaging", cfg.Environment)
	ids := publicid.NewCodec(cfg.PublicIDSecret)

	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	mediaRepo := repositories.NewMediaRepo(database)
	subscriptionRepo := repositories.NewSubscriptionRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)

	pipeline := media.NewPipeline(store, cfg.MediaNamespace)
	orchestrator := messaging.NewOrchestrator(conversationRepo, messageRepo, mediaRepo, notificationRepo, pipeline, publisher)
	broadcaster := messaging.NewBroadcaster(subscriptionRepo, orchestrator, pipeline)
	bookkeeper := messaging.NewBookkeeper(conversationRepo, messageRepo, mediaRepo, notificationRepo)

	messageHandler := handlers.NewMessageHandler(orchestrator, broadcaster, bookkeeper, ids, audit)
	conversationHandler := handlers.NewConversationHandler(conversationRepo, messageRepo, ids)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware("creator-messaging"))

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	router.POST("/messages", authMiddleware, messageHandler.SendMessage)
	router.POST("/messages/broadcast", authMiddleware, messageHandler.BroadcastMessage)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)
	router.DELETE("/conversations/with/:user_id", authMiddleware, messageHandler.DeleteConversation)

	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, conversationHandler.GetConversationMessages)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
