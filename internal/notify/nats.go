package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name identifies the connection on the server.
	Name string

	MaxReconnects int
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration

	// FlushTimeout bounds how long Close waits for buffered events.
	FlushTimeout time.Duration

	Username string
	Password string
	Token    string
}

// DefaultNATSConfig returns a NATSConfig with sensible defaults.
// A batch run fails fast rather than waiting on reconnects.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "gmfetch",
		MaxReconnects: 3,
		ReconnectWait: time.Second,
		Timeout:       5 * time.Second,
		FlushTimeout:  5 * time.Second,
	}
}

// NATSPublisher implements Publisher on a NATS connection.
type NATSPublisher struct {
	conn         *nats.Conn
	flushTimeout time.Duration
}

// NewNATSPublisher connects to the server named in cfg.
func NewNATSPublisher(cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, flushTimeout: cfg.FlushTimeout}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// Close flushes pending events and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	var err error
	if p.flushTimeout > 0 {
		err = p.conn.FlushTimeout(p.flushTimeout)
	}
	p.conn.Close()
	return err
}
