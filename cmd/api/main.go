package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flexchat/internal/config"
	"flexchat/internal/events"
	"flexchat/internal/handler"
	flexredis "flexchat/internal/redis"
	"flexchat/internal/services"
	"flexchat/internal/statemachine"
	"flexchat/internal/storage"
	"flexchat/internal/store"
	"flexchat/internal/websocket"
	"flexchat/pkg/logger"
	"flexchat/pkg/metrics"
)

func main() {
	cfg := config.LoadConfig()
	log := logger.New(cfg.Server.Environment)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Errorf("mongo connect failed: %v", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Client().Disconnect(context.Background())
	}()

	redisClient, err := flexredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Errorf("redis connect failed: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	s3Client, err := storage.NewClient(ctx, cfg.S3)
	if err != nil {
		log.Errorf("s3 client failed: %v", err)
		os.Exit(1)
	}

	bus := events.NewRedisBus(redisClient)
	conversationStore := store.NewConversationStore(db, bus)
	messageStore := store.NewMessageStore(db, bus)
	auditStore := store.NewAuditStore(db)
	watcher := store.NewWatcher(conversationStore, messageStore, bus, log)

	typingStore := flexredis.NewTypingStore(redisClient, bus, cfg.Chat.TypingTTL)
	presenceStore := flexredis.NewPresenceStore(redisClient, bus, 0)
	limiter := flexredis.NewRateLimiter(redisClient, flexredis.DefaultRateLimitConfig())

	m := metrics.New()
	audit := services.NewAuditService(auditStore, log)
	offline := services.NewOfflineQueue()
	chat := services.NewChatService(ctx, conversationStore, messageStore, typingStore, watcher, offline, audit, cfg.Chat, log)
	gdpr := services.NewGDPRService(conversationStore, messageStore, audit, log)
	auth := services.NewAuthService(cfg.JWT)
	validator := services.NewAttachmentValidator(cfg.Chat)
	uploads := services.NewUploadService(s3Client, validator)
	machine := statemachine.NewChatMachine(chat, gdpr, uploads, log)

	hub := websocket.NewHub()
	go hub.Run(ctx)
	go services.NewSyncRunner(offline, conversationStore, messageStore, audit, cfg.Chat.OfflineSyncEvery, log).Run(ctx)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := presenceStore.CleanupStalePresence(ctx, 10*time.Minute); err == nil && n > 0 {
					log.Infof("marked %d stale users offline", n)
				}
			}
		}
	}()

	router := handler.Router{
		Conversations: handler.NewConversationHandler(chat),
		Messages:      handler.NewMessageHandler(chat, m),
		Presence:      handler.NewPresenceHandler(chat, presenceStore),
		Uploads:       handler.NewUploadHandler(uploads),
		GDPR:          handler.NewGDPRHandler(gdpr),
		WebSocket:     websocket.NewHandler(hub, auth, chat, machine, presenceStore, m, log),
		Auth:          auth,
		Limiter:       limiter,
		Metrics:       m,
		Log:           log,
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(cfg.Server.Environment),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown failed: %v", err)
	}
}
