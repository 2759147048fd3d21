package record

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"rummikub/internal/log"
)

const DefaultSubject = "rummikub.round.settled"

// NATSSink publishes every round result as JSON on one subject.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

func NewNATSSink(url, subject string) (*NATSSink, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	opts := []nats.Option{
		nats.Name("rummikub-server"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSSink{conn: conn, subject: subject}, nil
}

func (s *NATSSink) Record(_ context.Context, r RoundResult) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", s.subject, err)
	}
	return nil
}

func (s *NATSSink) Close() error {
	return s.conn.Drain()
}
