package device

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Registry координирует фиксированный набор сессий устройств: запускает
// их циклы приема параллельно и отдает согласованный снимок состояния
// всех устройств. Registry никогда не мутирует состояние устройства сам —
// только читает копии.
type Registry struct {
	transport Transport

	mu       sync.RWMutex
	sessions map[int]*Session
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRegistry создает пустой реестр с общим транспортом.
func NewRegistry(transport Transport) *Registry {
	return &Registry{
		transport: transport,
		sessions:  make(map[int]*Session),
	}
}

// Register заводит сессию для слота id. Ошибки конфигурации — пустой
// адрес, занятый слот, работающий реестр — возвращаются синхронно
// вызывающему и никогда не всплывают во время приема.
func (r *Registry) Register(id int, name, target string) error {
	if target == "" {
		return fmt.Errorf("device %d: no connection target configured", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("device %d: registry is running, stop it before registering", id)
	}
	if _, exists := r.sessions[id]; exists {
		return fmt.Errorf("device %d: slot already registered", id)
	}

	r.sessions[id] = NewSession(id, name, target, r.transport)
	log.Printf("[REGISTRY] Registered device %d (%s) -> %s", id, name, target)
	return nil
}

// StartAll запускает цикл приема каждой зарегистрированной сессии в
// отдельной горутине. Отказ подключения одного устройства не мешает
// остальным.
func (r *Registry) StartAll(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	sessions := r.sessionList()
	r.mu.Unlock()

	log.Printf("[REGISTRY] Starting %d device session(s)", len(sessions))

	for _, s := range sessions {
		r.wg.Add(1)
		go func(s *Session) {
			defer r.wg.Done()
			if err := s.Connect(runCtx); err != nil {
				// Состояние уже в ERROR, снимки продолжают его отдавать.
				return
			}
			s.Ingest(runCtx)
		}(s)
	}
}

// StopAll сигналит всем сессиям, отключает каждое устройство независимо
// от его состояния и дожидается завершения циклов приема.
func (r *Registry) StopAll() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.cancel = nil
	sessions := r.sessionList()
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, s := range sessions {
		s.Disconnect()
	}
	r.wg.Wait()

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	log.Printf("[REGISTRY] All device sessions stopped")
}

// Snapshot возвращает копию состояния каждого зарегистрированного
// устройства. Карта сессий копируется под короткой блокировкой реестра,
// дальше каждое устройство читается под собственной блокировкой — зависшее
// устройство не задерживает снимок остальных.
func (r *Registry) Snapshot() map[int]Snapshot {
	sessions := r.snapshotSessions()

	out := make(map[int]Snapshot, len(sessions))
	for _, s := range sessions {
		out[s.ID()] = s.Snapshot()
	}
	return out
}

// Device возвращает снимок одного устройства.
func (r *Registry) Device(id int) (Snapshot, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	return s.Snapshot(), true
}

// Running сообщает, запущены ли циклы приема.
func (r *Registry) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Registry) snapshotSessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionList()
}

// sessionList требует удержания r.mu.
func (r *Registry) sessionList() []*Session {
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}
