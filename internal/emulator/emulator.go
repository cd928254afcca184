package emulator

import (
	"context"
	"log"
	"math/rand"
	"net"
	"time"
)

// Server стримит текстовый протокол устройства каждому подключившемуся
// клиенту, занимая место реального датчика при разработке.
type Server struct {
	cfg        Config
	sampleRate time.Duration
	jitter     time.Duration
}

// NewServer создает эмулятор устройства.
func NewServer(cfg Config, sampleRate, jitter time.Duration) *Server {
	return &Server{
		cfg:        cfg,
		sampleRate: sampleRate,
		jitter:     jitter,
	}
}

// Serve принимает соединения до отмены ctx.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		log.Printf("[EMULATOR] Client connected: %s", conn.RemoteAddr())
		go s.streamConn(ctx, conn)
	}
}

// streamConn пишет кадры с заданной частотой, пока клиент не отвалится.
func (s *Server) streamConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	gen := NewGenerator(s.cfg)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.nextInterval()):
		}

		frame := gen.NextFrame() + "\n"
		if _, err := conn.Write([]byte(frame)); err != nil {
			log.Printf("[EMULATOR] Client gone: %s", conn.RemoteAddr())
			return
		}
	}
}

// nextInterval добавляет случайное отклонение для реалистичности.
func (s *Server) nextInterval() time.Duration {
	if s.jitter <= 0 {
		return s.sampleRate
	}
	offset := time.Duration(float64(s.jitter) * (rand.Float64()*2 - 1))
	return s.sampleRate + offset
}
