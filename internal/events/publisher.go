// Package events publishes job lifecycle events over Redis pub/sub so other
// services can react to finished scrapes without polling the jobs table.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Publisher fans job events out on Redis channels. Publishing is
// best-effort: a Redis outage must never fail a scrape, so errors are logged
// and swallowed.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher returns a Publisher backed by rdb.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish marshals payload and sends it on channel.
func (p *Publisher) Publish(ctx context.Context, channel string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("marshal event payload", "channel", channel, "err", err)
		return
	}
	if err := p.rdb.Publish(ctx, channel, body).Err(); err != nil {
		slog.Warn("publish event", "channel", channel, "err", err)
	}
}
