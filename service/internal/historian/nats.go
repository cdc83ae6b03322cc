package historian

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultNATSSubjectPrefix is the subject prefix for action messages.
const DefaultNATSSubjectPrefix = "thief.game."

// NATSOptions configures a NATSPublisher.
type NATSOptions struct {
	URL           string
	Prefix        string // defaults to DefaultNATSSubjectPrefix
	MaxReconnects int
	ReconnectWait time.Duration
	Encoding      Encoding
}

// NATSPublisher publishes each record on a per-game subject.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	enc    Encoding
}

// NewNATSPublisher connects to the NATS server at opts.URL.
func NewNATSPublisher(opts NATSOptions) (*NATSPublisher, error) {
	natsOpts := []nats.Option{nats.Name("thief-historian")}
	if opts.MaxReconnects != 0 {
		natsOpts = append(natsOpts, nats.MaxReconnects(opts.MaxReconnects))
	}
	if opts.ReconnectWait > 0 {
		natsOpts = append(natsOpts, nats.ReconnectWait(opts.ReconnectWait))
	}
	nc, err := nats.Connect(opts.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", opts.URL, err)
	}
	p := NewNATSPublisherFromConn(nc, opts.Prefix)
	p.enc = opts.Encoding
	return p, nil
}

// NewNATSPublisherFromConn wraps an existing connection.
func NewNATSPublisherFromConn(nc *nats.Conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultNATSSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix, enc: EncodingJSON}
}

// Subject returns the subject a game's records are published on.
func (p *NATSPublisher) Subject(rec ActionRecord) string {
	return p.prefix + rec.GameID.String() + ".action"
}

// Publish sends the record. NATS core publishing does not block on the
// server, so ctx is only checked before sending.
func (p *NATSPublisher) Publish(ctx context.Context, rec ActionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := rec.EncodeAs(p.enc)
	if err != nil {
		return fmt.Errorf("encode action %d: %w", rec.ActionIndex, err)
	}
	if err := p.nc.Publish(p.Subject(rec), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", p.Subject(rec), err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	err := p.nc.Drain()
	if err != nil {
		p.nc.Close()
	}
	return err
}
