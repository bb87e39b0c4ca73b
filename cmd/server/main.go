package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shardchat/shardchat/internal/config"
	"github.com/shardchat/shardchat/internal/httpapi"
	"github.com/shardchat/shardchat/internal/replica"
	"github.com/shardchat/shardchat/internal/room"
	"github.com/shardchat/shardchat/internal/store/rabbitmq"
	"github.com/shardchat/shardchat/internal/store/redisstore"
	"github.com/shardchat/shardchat/internal/store/sqlite"
)

func main() {
	cfg := config.Load()

	resolver := sqlite.NewResolver(cfg.DataDir, cfg.AggregateDSN)

	var mirror room.Replicator
	switch cfg.MirrorPolicy {
	case "", "sync":
		agg, err := resolver.Aggregate()
		if err != nil {
			log.Fatalf("open aggregate unit: %v", err)
		}
		mirror = replica.NewSync(agg)
	case "queue":
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatalf("rabbit dial: %v", err)
		}
		defer pub.Close()
		mirror = replica.NewQueue(pub)
	default:
		log.Fatalf("unsupported MIRROR_POLICY=%q", cfg.MirrorPolicy)
	}

	var cache room.PresenceCache
	if cfg.RedisAddr != "" {
		rds, err := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.PresenceWindow)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer rds.Close()
		cache = rds
	}

	svc := room.NewService(resolver, mirror, room.ServiceOptions{
		PresenceWindow: cfg.PresenceWindow,
		MaxMessageLen:  cfg.MessageMaxLen,
		MaxUsernameLen: cfg.UsernameMaxLen,
		Cache:          cache,
	})

	router := httpapi.NewRouter(cfg, svc, resolver)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server listening addr=%s data_dir=%s mirror=%s", cfg.HTTPAddr, cfg.DataDir, cfg.MirrorPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
