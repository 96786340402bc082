package main

import (
	"chatcord-backend/internal/authz"
	"chatcord-backend/internal/config"
	"chatcord-backend/internal/database"
	"chatcord-backend/internal/dm"
	"chatcord-backend/internal/friends"
	"chatcord-backend/internal/handlers"
	"chatcord-backend/internal/jwt"
	"chatcord-backend/internal/keyValue"
	"chatcord-backend/internal/logger"
	"chatcord-backend/internal/messages"
	"chatcord-backend/internal/metrics"
	"chatcord-backend/internal/profiles"
	"chatcord-backend/internal/servers"
	"chatcord-backend/internal/snowflake"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "config.json", "path of the json config file")
	flag.Parse()

	fmt.Println("Reading config file...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Println("Setting up logger...")
	sugar, err := logger.Setup(cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer func() {
		_ = sugar.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Connecting to database...")
	db, err := database.Setup(cfg, sugar)
	if err != nil {
		sugar.Fatal(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			sugar.Error(err)
		}
	}()

	var redisClient *redis.Client
	if !cfg.SelfContained {
		fmt.Println("Connecting to redis...")
		redisClient, err = keyValue.SetupRedis(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			sugar.Fatal(err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				sugar.Error(err)
			}
		}()
	}

	kv := keyValue.New(ctx, sugar, redisClient)

	ids, err := snowflake.NewGenerator(cfg.SnowflakeWorkerID)
	if err != nil {
		sugar.Fatal(err)
	}

	isHttps := cfg.TlsCert != "" && cfg.TlsKey != ""

	gate := authz.NewGate(db, kv, sugar)
	profileService := profiles.New(db, sugar, cfg.DefaultAvatar)
	dmService := dm.New(db, sugar, ids)

	h := handlers.New(sugar, jwt.NewVerifier(cfg.JwtSecret, isHttps), kv, metrics.New(), handlers.Services{
		Profiles: profileService,
		Friends:  friends.New(db, sugar, cfg.FriendPolicy),
		Servers:  servers.New(db, sugar, ids, gate),
		DMs:      dmService,
		Messages: messages.New(db, sugar, ids, gate, dmService, profileService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Address, cfg.Port),
		Handler:           handlers.NewRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sugar.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			sugar.Error(err)
		}
	}()

	httpProtocol := "http"
	if isHttps {
		httpProtocol = "https"
	}
	sugar.Infof("Server is running on %s://%s", httpProtocol, server.Addr)

	if isHttps {
		err = server.ListenAndServeTLS(cfg.TlsCert, cfg.TlsKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatal(err)
	}
}
