package device

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Conn — установленный байтовый поток от устройства.
// Read может вернуть (0, nil) как транзиентное чтение: данных пока нет,
// цикл приема должен уступить и повторить попытку.
type Conn interface {
	Read(p []byte) (int, error)
	Close() error
}

// Transport устанавливает байтовый поток до устройства по его адресу.
// Протоколу все равно, что под ним: RFCOMM, serial или TCP — важен только
// надежный поток байт с кадрами, разделенными переводом строки.
type Transport interface {
	Open(ctx context.Context, target string) (Conn, error)
}

// TCPTransport реализует Transport поверх TCP.
type TCPTransport struct {
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// NewTCPTransport создает транспорт с заданными таймаутами.
func NewTCPTransport(dialTimeout, readTimeout time.Duration) *TCPTransport {
	return &TCPTransport{
		DialTimeout: dialTimeout,
		ReadTimeout: readTimeout,
	}
}

// Open устанавливает TCP-соединение с устройством.
func (t *TCPTransport) Open(ctx context.Context, target string) (Conn, error) {
	dialer := net.Dialer{Timeout: t.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", target, err)
	}
	return &tcpConn{conn: conn, readTimeout: t.ReadTimeout}, nil
}

// tcpConn ограничивает каждое чтение дедлайном, чтобы цикл приема
// регулярно возвращался к проверке сигнала остановки.
type tcpConn struct {
	conn        net.Conn
	readTimeout time.Duration
}

func (c *tcpConn) Read(p []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.conn.Read(p)
	if err != nil {
		// Истекший дедлайн — не фатальная ошибка, а "данных пока нет".
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}
