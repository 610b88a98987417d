package changefeed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"georegistry/internal/domain"
)

// Publisher pushes every recorded diff onto a Redis channel so external
// consumers get notified without polling the diff feed. Publishing is best
// effort: a Redis outage must never fail a save.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// notification is the wire shape pushed onto the channel. Consumers use the
// increment as a cursor into the diff feed.
type notification struct {
	Increment  int64       `json:"increment"`
	RecordKind domain.Kind `json:"kind"`
	RecordID   string      `json:"record_id"`
}

// New creates a publisher from a Redis URL. An empty URL returns nil, which
// callers treat as changefeed disabled.
func New(redisURL, channel string, logger *slog.Logger) (*Publisher, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:  redis.NewClient(opts),
		channel: channel,
		logger:  logger,
	}, nil
}

// Publish sends a diff notification. Errors are logged, not returned.
func (p *Publisher) Publish(ctx context.Context, diff domain.Diff) {
	payload, err := json.Marshal(notification{
		Increment:  diff.Increment,
		RecordKind: diff.RecordKind,
		RecordID:   diff.RecordID.String(),
	})
	if err != nil {
		p.logger.Warn("failed to encode changefeed notification", "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("failed to publish changefeed notification",
			"channel", p.channel, "error", err)
	}
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
