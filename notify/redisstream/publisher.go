// Package redisstream publishes engine notifications onto a Redis stream.
//
// Each notification becomes one stream entry with two fields: "kind"
// (reserved, started or claimed) and "payload", the msgpack encoding of the
// matching Message type. Amounts travel as decimal strings.
package redisstream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/xraph/vesting/plugin"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "vesting:events"

// Notification kinds.
const (
	KindReserved = "reserved"
	KindStarted  = "started"
	KindClaimed  = "claimed"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin     = (*Publisher)(nil)
	_ plugin.OnReserved = (*Publisher)(nil)
	_ plugin.OnStarted  = (*Publisher)(nil)
	_ plugin.OnClaimed  = (*Publisher)(nil)
)

// ReservedMessage is the payload of a reserved entry.
type ReservedMessage struct {
	ScheduleID string `msgpack:"schedule_id"`
	Account    string `msgpack:"account"`
	Amount     string `msgpack:"amount"`
	Total      string `msgpack:"total"`
}

// StartedMessage is the payload of a started entry.
type StartedMessage struct {
	ScheduleID string    `msgpack:"schedule_id"`
	Total      string    `msgpack:"total"`
	StartedAt  time.Time `msgpack:"started_at"`
}

// ClaimedMessage is the payload of a claimed entry.
type ClaimedMessage struct {
	ScheduleID   string `msgpack:"schedule_id"`
	Account      string `msgpack:"account"`
	Batch        bool   `msgpack:"batch"`
	TotalClaimed string `msgpack:"total_claimed"`
	Amount       string `msgpack:"amount"`
}

// Publisher is a plugin that appends every notification to a stream.
type Publisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithStream sets the stream key.
func WithStream(stream string) Option {
	return func(p *Publisher) { p.stream = stream }
}

// WithMaxLen caps the stream at approximately n entries. Zero disables trimming.
func WithMaxLen(n int64) Option {
	return func(p *Publisher) { p.maxLen = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// New creates a Publisher writing through client.
func New(client redis.Cmdable, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		stream: DefaultStream,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "redis-stream" }

// OnReserved implements plugin.OnReserved.
func (p *Publisher) OnReserved(ctx context.Context, evt *plugin.Reserved) error {
	return p.publish(ctx, KindReserved, ReservedMessage{
		ScheduleID: evt.ScheduleID.String(),
		Account:    evt.Account.String(),
		Amount:     evt.Amount.String(),
		Total:      evt.Total.String(),
	})
}

// OnStarted implements plugin.OnStarted.
func (p *Publisher) OnStarted(ctx context.Context, evt *plugin.Started) error {
	return p.publish(ctx, KindStarted, StartedMessage{
		ScheduleID: evt.ScheduleID.String(),
		Total:      evt.Total.String(),
		StartedAt:  evt.StartedAt,
	})
}

// OnClaimed implements plugin.OnClaimed.
func (p *Publisher) OnClaimed(ctx context.Context, evt *plugin.Claimed) error {
	return p.publish(ctx, KindClaimed, ClaimedMessage{
		ScheduleID:   evt.ScheduleID.String(),
		Account:      evt.Account.String(),
		Batch:        evt.Batch,
		TotalClaimed: evt.TotalClaimed.String(),
		Amount:       evt.Amount.String(),
	})
}

func (p *Publisher) publish(ctx context.Context, kind string, msg any) error {
	payload, err := msgpack.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redisstream: encode %s: %w", kind, err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"kind":    kind,
			"payload": payload,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	entryID, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("redisstream: xadd %s: %w", p.stream, err)
	}
	p.logger.Debug("notification published",
		"stream", p.stream,
		"kind", kind,
		"entry", entryID,
	)
	return nil
}

// Decode unmarshals the payload of a stream entry into the Message type
// matching its kind.
func Decode(values map[string]any) (string, any, error) {
	kind, _ := values["kind"].(string)
	raw, ok := values["payload"].(string)
	if !ok {
		return kind, nil, fmt.Errorf("redisstream: entry has no payload")
	}

	var msg any
	switch kind {
	case KindReserved:
		msg = new(ReservedMessage)
	case KindStarted:
		msg = new(StartedMessage)
	case KindClaimed:
		msg = new(ClaimedMessage)
	default:
		return kind, nil, fmt.Errorf("redisstream: unknown kind %q", kind)
	}
	if err := msgpack.Unmarshal([]byte(raw), msg); err != nil {
		return kind, nil, fmt.Errorf("redisstream: decode %s: %w", kind, err)
	}
	return kind, msg, nil
}
