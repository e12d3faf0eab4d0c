// Command auction-server hosts the auction engine: REST and websocket
// surfaces, the Redis-backed ledger, PubNub push, and the asynq worker that
// drives lot timers and settlement handoffs.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openlot-io/openlot/config"
	"github.com/openlot-io/openlot/engine"
	"github.com/openlot-io/openlot/httpapi"
	"github.com/openlot-io/openlot/push"
	"github.com/openlot-io/openlot/sched"
	"github.com/openlot-io/openlot/store"
)

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := buildLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logger.Fatal("invalid auction config", zap.Error(err))
	}

	var st store.Store = store.NewMemoryStore()
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		st = store.NewRedisStore(rdb)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)

	hub := push.NewWSHub(logger)
	sinks := []push.Publisher{hub, sched.NewTaskPublisher(asynqClient)}
	if cfg.PubNub.Enabled {
		pn, err := push.NewPubNubPublisher(push.PubNubConfig{
			PublishKey:   cfg.PubNub.PublishKey,
			SubscribeKey: cfg.PubNub.SubscribeKey,
			SecretKey:    cfg.PubNub.SecretKey,
			UserID:       cfg.PubNub.UserID,
		})
		if err != nil {
			logger.Fatal("pubnub init failed", zap.Error(err))
		}
		sinks = append(sinks, pn)
	}
	publisher := push.NewFanout(logger, sinks...)

	eng := engine.New(st, publisher, logger, engineCfg)
	defer eng.Close()

	go func() {
		svc := sched.NewService(eng, logger)
		if err := sched.Run(redisOpt, svc, logger); err != nil {
			logger.Fatal("task worker failed", zap.Error(err))
		}
	}()

	server := httpapi.NewServer(eng, hub, logger)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.Start(cfg.HTTP.Addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "time"
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
