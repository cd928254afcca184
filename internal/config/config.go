package config

import (
	"os"
	"strconv"
	"time"
)

// MaxDevices — число слотов устройств (DEVICE1..DEVICE3).
const MaxDevices = 3

// DeviceSlot описывает один настроенный слот устройства.
type DeviceSlot struct {
	ID     int
	Name   string
	Target string
}

// Config содержит все настройки приложения
type Config struct {
	// HTTP server settings
	HTTPPort string

	// Transport settings
	DialTimeout time.Duration
	ReadTimeout time.Duration

	// Consumer settings
	UpdateInterval time.Duration

	// Device slots (пустой Target — слот не настроен)
	Devices []DeviceSlot

	// Redis settings (пустой RedisAddr отключает зеркало состояния)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SnapshotTTL    time.Duration
	MirrorInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения с дефолтными значениями
func Load() *Config {
	cfg := &Config{
		HTTPPort: getEnvString("HTTP_PORT", "8080"),

		DialTimeout: time.Duration(getEnvInt64("DIAL_TIMEOUT_MS", 5000)) * time.Millisecond,
		ReadTimeout: time.Duration(getEnvInt64("READ_TIMEOUT_MS", 2000)) * time.Millisecond,

		// 500мс — частота опроса потребителя, как у исходного дисплея
		UpdateInterval: time.Duration(getEnvInt64("UPDATE_INTERVAL_MS", 500)) * time.Millisecond,

		RedisAddr:      getEnvString("REDIS_ADDR", ""),
		RedisPassword:  getEnvString("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		SnapshotTTL:    time.Duration(getEnvInt("SNAPSHOT_TTL_SECONDS", 30)) * time.Second,
		MirrorInterval: time.Duration(getEnvInt64("MIRROR_INTERVAL_MS", 1000)) * time.Millisecond,
	}

	for i := 1; i <= MaxDevices; i++ {
		slot := DeviceSlot{
			ID:     i,
			Name:   getEnvString("DEVICE"+strconv.Itoa(i)+"_NAME", "ESP32_HR_"+strconv.Itoa(i)),
			Target: getEnvString("DEVICE"+strconv.Itoa(i)+"_ADDR", ""),
		}
		cfg.Devices = append(cfg.Devices, slot)
	}

	return cfg
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
