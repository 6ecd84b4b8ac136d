package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-relay/internal/config"
	"chat-relay/internal/handlers"
	"chat-relay/internal/observability"
	"chat-relay/internal/relay"
	"chat-relay/internal/store"
	"chat-relay/internal/webhook"
	"chat-relay/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.OTLPEndpoint, "chat-relay", cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	var messageStore store.Store
	if cfg.DBDSN != "" {
		pgStore, err := store.NewPostgresStore(cfg.DBDSN)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		defer pgStore.Close()
		messageStore = pgStore
		log.Println("using postgres message store")
	} else {
		messageStore = store.NewMemoryStore()
		log.Println("using in-memory message store")
	}

	publisher := observability.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	observability.SetPublisher(publisher)
	defer publisher.Close()

	hub := ws.NewHub(cfg.BroadcastUnscoped)
	forwarder := webhook.NewHTTPForwarder(cfg.WebhookTimeout)
	coordinator := relay.New(messageStore, forwarder, hub, relay.Config{
		DefaultSessionID:  cfg.DefaultSessionID,
		DefaultWebhookURL: cfg.WebhookURL,
	})

	chatHandler := handlers.NewChatHandler(messageStore, coordinator, cfg.DefaultSessionID)
	chatWS := ws.NewChatWebSocketHandler(hub, coordinator, cfg.DefaultSessionID)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chat-relay"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.POST("/api/chat/webhook", chatHandler.PostWebhookCallback)
	router.GET("/api/chat/messages", chatHandler.GetMessages)
	router.GET("/ws", chatWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
