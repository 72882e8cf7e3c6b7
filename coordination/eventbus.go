package coordination

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/coordframe/delegation/logging"
)

// EventBus is the transport-agnostic contract the Coordinator uses to
// broadcast RFPs and receive Bids/heartbeats. Tests substitute an
// in-memory fake; production wiring uses NatsEventBus.
type EventBus interface {
	Publish(subject string, payload interface{}) error
	Subscribe(subject string, handler func(payload []byte)) (unsubscribe func() error, err error)
	Close()
}

// NatsEventBus backs EventBus with a NATS connection, matching the
// fail-fast connect-with-timeout idiom used for the Redis ledger backend:
// connection failures surface immediately at construction rather than
// being masked by a retry loop the caller can't observe.
type NatsEventBus struct {
	conn   *nats.Conn
	logger logging.Logger
}

// NewNatsEventBus connects to url and returns a ready bus.
func NewNatsEventBus(url string, logger logging.Logger) (*NatsEventBus, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	conn, err := nats.Connect(url,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NatsEventBus{conn: conn, logger: logger}, nil
}

// Publish JSON-encodes payload and publishes it on subject.
func (b *NatsEventBus) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	if err := b.conn.Publish(subject, data); err != nil {
		b.logger.Error("event publish failed", map[string]interface{}{"subject": subject, "error": err.Error()})
		return err
	}
	return nil
}

// Subscribe registers handler for every message on subject and returns a
// function to cancel the subscription.
func (b *NatsEventBus) Subscribe(subject string, handler func(payload []byte)) (func() error, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	return sub.Unsubscribe, nil
}

// Close closes the underlying connection without draining it.
func (b *NatsEventBus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

// Subject naming conventions for the delegation market protocol.
const (
	SubjectRFP       = "delegation.rfp"
	SubjectBid       = "delegation.bid"
	SubjectHeartbeat = "delegation.heartbeat"
)
