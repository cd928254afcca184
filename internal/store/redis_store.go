package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"pulse-monitor/internal/device"
)

// RedisStore зеркалирует последний снимок каждого устройства в Redis,
// чтобы внешние потребители могли читать текущее состояние. Хранится
// только текущее состояние с TTL — исторические сессии не персистятся.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore создает новый экземпляр RedisStore
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Ping проверяет доступность Redis.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func deviceKey(id int) string {
	return fmt.Sprintf("device:%d:state", id)
}

// PublishSnapshot записывает снимки всех устройств как Redis-хэши с TTL.
func (r *RedisStore) PublishSnapshot(ctx context.Context, devices map[int]device.Snapshot) error {
	pipe := r.client.Pipeline()

	for id, snap := range devices {
		fields := map[string]interface{}{
			"name":       snap.Name,
			"status":     string(snap.Status),
			"connected":  snap.Connected,
			"updated_at": snap.UpdatedAt.Unix(),
		}
		if snap.SmoothedHR != nil {
			fields["smoothed_hr"] = *snap.SmoothedHR
		}
		if snap.SmoothedSpO2 != nil {
			fields["smoothed_spo2"] = *snap.SmoothedSpO2
		}
		if snap.Metrics.BPM != nil {
			fields["bpm"] = *snap.Metrics.BPM
		}
		if snap.Metrics.IPM != nil {
			fields["ipm"] = *snap.Metrics.IPM
		}
		if snap.Metrics.HRStd != nil {
			fields["hrstd"] = *snap.Metrics.HRStd
		}
		if snap.Metrics.RMSSD != nil {
			fields["rmssd"] = *snap.Metrics.RMSSD
		}
		if snap.Metrics.AvgSpO2 != nil {
			fields["avg_spo2"] = *snap.Metrics.AvgSpO2
		}
		if snap.Latest != nil {
			fields["device_status"] = snap.Latest.Status
		}

		key := deviceKey(id)
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Mirror периодически публикует снимок реестра до отмены ctx.
func (r *RedisStore) Mirror(ctx context.Context, registry *device.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publishCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := r.PublishSnapshot(publishCtx, registry.Snapshot()); err != nil {
				log.Printf("[WARN] Failed to mirror snapshot to redis: %v", err)
			}
			cancel()
		}
	}
}
