package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plantd-admin/internal/alarm"
	"plantd-admin/internal/config"
	"plantd-admin/internal/domain"
	"plantd-admin/internal/export"
	"plantd-admin/internal/gateway"
	"plantd-admin/internal/logger"
	"plantd-admin/internal/mqtt"
	"plantd-admin/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "plantd-admin")
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	gw := gateway.NewRestGateway(
		cfg.API.BaseURL,
		cfg.API.AuthToken,
		time.Duration(cfg.API.TimeoutSeconds)*time.Second,
		log,
	)

	// 统计聚合缓存：默认进程内，启用 Redis 时共享
	var kv store.KV = store.NewMemoryKV()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis enabled but connection failed, falling back to memory cache", zap.Error(err))
		} else {
			kv = store.NewRedisKV(redisClient)
			log.Info("Redis cache enabled for plantd-admin")
		}
	}

	devices := store.NewDeviceStore(gw, log)
	alarms := alarm.NewController(gw, kv, time.Duration(cfg.Stats.TTLSeconds)*time.Second, log)

	ctx := context.Background()

	// 预热缓存：失败不致命，Store 保留错误信息供界面展示
	if _, err := devices.FetchList(ctx, domain.Filters{}, domain.PageRequest{Page: 1, Limit: 20}); err != nil {
		log.Warn("Initial device fetch failed", zap.Error(err))
	}
	if _, err := alarms.FetchList(ctx, domain.Filters{"status": string(domain.AlarmOpen)}, domain.PageRequest{Page: 1, Limit: 20}); err != nil {
		log.Warn("Initial alarm fetch failed", zap.Error(err))
	}
	if _, err := alarms.RefreshStatistics(ctx, domain.Filters{}); err != nil {
		log.Warn("Initial alarm statistics fetch failed", zap.Error(err))
	}

	// 可选：启动时导出一份设备清单
	if path := os.Getenv("EXPORT_DEVICES_PATH"); path != "" {
		if raw, err := export.Devices(devices.Items()); err != nil {
			log.Warn("Device export failed", zap.Error(err))
		} else if err := os.WriteFile(path, raw, 0o644); err != nil {
			log.Warn("Device export write failed", zap.String("path", path), zap.Error(err))
		} else {
			log.Info("Device inventory exported", zap.String("path", path))
		}
	}

	// 设备状态推送通道（可选）
	var feed *mqtt.StatusFeed
	if cfg.MQTT.Enabled {
		feed, err = mqtt.NewStatusFeed(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      byte(cfg.MQTT.QoS),
		}, devices, log)
		if err != nil {
			log.Warn("MQTT status feed unavailable", zap.Error(err))
		} else if err := feed.Start(); err != nil {
			log.Warn("MQTT subscribe failed", zap.Error(err))
		}
	}

	log.Info("plantd-admin started",
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if feed != nil {
		feed.Stop()
	}
	log.Info("plantd-admin stopped")
}
