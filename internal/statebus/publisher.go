// Package statebus mirrors check-in session changes onto a Redis pub/sub
// channel for presentation layers running outside the kiosk process.
package statebus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fossasia/eventyay-checkin/internal/checkin"
)

const DefaultChannel = "checkin:state"

const publishTimeout = 2 * time.Second

// Publisher is a checkin.Observer that PUBLISHes every snapshot as JSON.
// Nothing is stored in Redis.
type Publisher struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

func NewPublisher(rdb *redis.Client, channel string, log *zap.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{rdb: rdb, channel: channel, log: log}
}

// Channel returns the channel snapshots are published on.
func (p *Publisher) Channel() string { return p.channel }

// StateChanged publishes st. Failures are logged and never reach the
// check-in flow.
func (p *Publisher) StateChanged(st checkin.State) {
	raw, err := json.Marshal(st)
	if err != nil {
		p.log.Error("statebus: marshal state", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.log.Warn("statebus: publish failed", zap.String("channel", p.channel), zap.Error(err))
	}
}
