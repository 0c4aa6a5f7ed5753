package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-survey/cache"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/handlers"
	"github.com/danielhkuo/quickly-survey/identity"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	driver, err := db.DriverName(cfg.DatabaseType)
	if err != nil {
		slog.Error("unsupported database type", "error", err, "type", cfg.DatabaseType)
		os.Exit(1)
	}

	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Statistics cache: Redis when configured, in process otherwise
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.Connect(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Redis stats cache ready", "addr", cfg.RedisAddr)
	}

	store := db.NewStore(dbConn)
	session := identity.NewSession(identity.NewVerifier(cfg.TokenSecret, cfg.TokenTTL))
	stopWatching := session.OnChange(func(u *identity.User) {
		if u == nil {
			slog.Info("signed out")
			return
		}
		slog.Info("signed in", "user_id", u.ID)
	})
	defer stopWatching()

	services := handlers.NewServices(store, cfg, session, redisClient)
	defer services.Close()

	slog.Info("Survey services ready", "redis_cache", redisClient != nil)
}
