package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-trivia-service/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const DefaultSubject = "trivia.snapshots"

const (
	maxReconnects = -1
	reconnectWait = 2 * time.Second
)

// Publisher is the part of a NATS connection the snapshot publisher uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// SnapshotPublisher announces every game snapshot on a NATS subject so
// scoreboards and archivers can follow the game.
type SnapshotPublisher struct {
	conn    Publisher
	subject string
}

func NewSnapshotPublisher(conn Publisher, subject string) *SnapshotPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &SnapshotPublisher{conn: conn, subject: subject}
}

func (p *SnapshotPublisher) SaveSnapshot(_ context.Context, snapshot domain.GameSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := p.conn.Publish(p.subject, raw); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	log.Debug().Str("subject", p.subject).Int("bytes", len(raw)).Msg("snapshot published")
	return nil
}

// Connect dials NATS with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("event-trivia-service"),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}
