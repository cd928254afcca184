package device

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	obsmetrics "pulse-monitor/internal/observability/metrics"
	"pulse-monitor/internal/protocol"
)

const (
	readBufferSize = 1024
	// idleRetryDelay — пауза после транзиентного пустого чтения.
	idleRetryDelay = 100 * time.Millisecond
)

// Session владеет жизненным циклом одного устройства: соединением, сборкой
// строк из байтового потока и состоянием. Состояние мутирует только цикл
// приема этой сессии; потребители получают копии через Snapshot.
type Session struct {
	id        int
	name      string
	target    string
	transport Transport

	mu        sync.RWMutex
	conn      Conn
	status    ConnectionStatus
	connected bool
	latest    *protocol.Reading
	updatedAt time.Time

	hrFilter   *SmoothingFilter
	spo2Filter *SmoothingFilter
	engine     *MetricsEngine
}

// NewSession создает сессию для устройства со слотом id.
func NewSession(id int, name, target string, transport Transport) *Session {
	return &Session{
		id:         id,
		name:       name,
		target:     target,
		transport:  transport,
		status:     StatusDisconnected,
		hrFilter:   NewSmoothingFilter(PolicyMedian),
		spo2Filter: NewSmoothingFilter(PolicyMean),
		engine:     NewMetricsEngine(),
	}
}

// ID возвращает номер слота устройства.
func (s *Session) ID() int {
	return s.id
}

// Name возвращает человекочитаемое имя устройства.
func (s *Session) Name() string {
	return s.name
}

// Connect устанавливает транспорт. Неудача переводит сессию в ERROR и
// возвращается ошибкой — паник через границу API не бывает.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusConnecting
	s.updatedAt = time.Now()
	s.mu.Unlock()

	log.Printf("[SESSION] device=%d name=%s connecting to %s", s.id, s.name, s.target)

	conn, err := s.transport.Open(ctx, s.target)
	if err != nil {
		s.mu.Lock()
		if ctx.Err() != nil {
			// Остановка во время подключения — не ошибка устройства.
			s.status = StatusDisconnected
		} else {
			s.status = StatusError
		}
		s.updatedAt = time.Now()
		s.mu.Unlock()
		log.Printf("[ERROR] device=%d connection failed: %v", s.id, err)
		return fmt.Errorf("device %d: %w", s.id, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.status = StatusConnected
	s.connected = true
	s.updatedAt = time.Now()
	s.mu.Unlock()

	obsmetrics.SetDeviceConnected(s.name, true)
	log.Printf("[SESSION] device=%d name=%s connected", s.id, s.name)
	return nil
}

// Ingest читает байтовый поток, собирает строки по '\n' и применяет каждую
// к состоянию. Работает до отмены ctx, явного Disconnect или фатальной
// ошибки транспорта. Ошибка транспорта замораживает последнее известное
// состояние в ERROR; ничего не пробрасывается наружу.
func (s *Session) Ingest(ctx context.Context) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		log.Printf("[WARN] device=%d ingest requested without connection", s.id)
		return
	}

	runID := uuid.New().String()
	log.Printf("[SESSION] device=%d run=%s ingest started", s.id, runID)

	buf := make([]byte, readBufferSize)
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			log.Printf("[SESSION] device=%d run=%s ingest cancelled", s.id, runID)
			s.Disconnect()
			return
		default:
		}

		n, err := conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = s.drainLines(pending)
		}

		if err != nil {
			if s.Status() == StatusDisconnected {
				// Транспорт закрыт явным Disconnect, это не ошибка.
				log.Printf("[SESSION] device=%d run=%s ingest stopped", s.id, runID)
				return
			}
			log.Printf("[ERROR] device=%d run=%s transport failure: %v", s.id, runID, err)
			s.fail()
			return
		}

		if n == 0 {
			select {
			case <-ctx.Done():
			case <-time.After(idleRetryDelay):
			}
		}
	}
}

// drainLines извлекает из буфера все завершенные строки и возвращает
// непотребленный остаток (возможный неполный кадр).
func (s *Session) drainLines(pending []byte) []byte {
	for {
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			return pending
		}
		raw := pending[:idx]
		pending = pending[idx+1:]
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		s.handleLine(string(raw))
	}
}

// handleLine применяет одну строку протокола к состоянию устройства.
// Недекодируемая строка отбрасывается с диагностикой — цикл приема
// продолжает жить.
func (s *Session) handleLine(line string) {
	reading, err := protocol.ParseLine(line)
	if err != nil {
		obsmetrics.IncDecodeErrors(s.name)
		log.Printf("[WARN] device=%d dropped undecodable frame: %v", s.id, err)
		return
	}

	obsmetrics.IncFramesReceived(s.name)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = reading
	s.status = StatusReceiving
	s.updatedAt = time.Now()

	if reading.HRValid && reading.HR != nil {
		if s.engine.OfferHR(*reading.HR, reading.LocalTime) {
			s.hrFilter.Offer(*reading.HR)
		} else {
			obsmetrics.IncSamplesRejected(s.name, "hr")
		}
	}

	if reading.SpO2Valid && reading.SpO2 != nil {
		if s.engine.OfferSpO2(*reading.SpO2) {
			s.spo2Filter.Offer(*reading.SpO2)
		} else {
			obsmetrics.IncSamplesRejected(s.name, "spo2")
		}
	}
}

// Disconnect закрывает транспорт и переводит сессию в DISCONNECTED.
// Идемпотентен и безопасен из любого состояния.
func (s *Session) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	wasConnected := s.connected
	s.connected = false
	s.status = StatusDisconnected
	s.updatedAt = time.Now()
	s.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Printf("[WARN] device=%d close failed: %v", s.id, err)
		}
	}
	if wasConnected {
		obsmetrics.SetDeviceConnected(s.name, false)
		log.Printf("[SESSION] device=%d name=%s disconnected", s.id, s.name)
	}
}

// fail фиксирует фатальную ошибку транспорта: состояние замораживается в
// ERROR и остается доступным для инспекции.
func (s *Session) fail() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.status = StatusError
	s.updatedAt = time.Now()
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	obsmetrics.SetDeviceConnected(s.name, false)
}

// Status возвращает текущее состояние подключения.
func (s *Session) Status() ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot возвращает неизменяемую копию состояния устройства. Блокировка
// удерживается только на время копирования полей.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:        s.id,
		Name:      s.name,
		Target:    s.target,
		Status:    s.status,
		Connected: s.connected,
		Latest:    s.latest.Clone(),
		Metrics:   s.engine.Snapshot(),
		UpdatedAt: s.updatedAt,
	}
	if v, ok := s.hrFilter.Current(); ok {
		snap.SmoothedHR = &v
	}
	if v, ok := s.spo2Filter.Current(); ok {
		snap.SmoothedSpO2 = &v
	}
	return snap
}
