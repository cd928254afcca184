package discovery

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Device — найденное устройство: идентификатор (адрес) и человекочитаемое
// имя.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Scanner перечисляет доступные устройства. Само сканирование — внешний
// коллаборатор; ядру важна только пара (идентификатор, имя).
type Scanner interface {
	Scan(ctx context.Context) ([]Device, error)
}

// StaticScanner отдает заранее настроенный список устройств.
type StaticScanner struct {
	devices []Device
}

// NewStaticScanner создает сканер по списку из конфигурации.
func NewStaticScanner(devices []Device) *StaticScanner {
	return &StaticScanner{devices: devices}
}

func (s *StaticScanner) Scan(ctx context.Context) ([]Device, error) {
	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out, nil
}

const scanCacheKey = "scan:last"

// CachedScanner кэширует результат сканирования на время TTL: повторные
// запросы потребителей не запускают медленное сканирование заново.
type CachedScanner struct {
	scanner Scanner
	cache   *cache.Cache
}

// NewCachedScanner оборачивает scanner кэшем с заданным TTL.
func NewCachedScanner(scanner Scanner, ttl time.Duration) *CachedScanner {
	return &CachedScanner{
		scanner: scanner,
		cache:   cache.New(ttl, 2*ttl),
	}
}

func (s *CachedScanner) Scan(ctx context.Context) ([]Device, error) {
	if x, found := s.cache.Get(scanCacheKey); found {
		return x.([]Device), nil
	}

	devices, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(scanCacheKey, devices, cache.DefaultExpiration)
	return devices, nil
}
