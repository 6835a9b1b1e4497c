// Package events publishes domain notifications for other services.
// Delivery is best effort and never fails the operation that produced it.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channels
const (
	ChannelApplicationSubmitted = "application.submitted"
	ChannelApplicationStatus    = "application.status_changed"
	ChannelMessagePosted        = "message.posted"
)

// ApplicationSubmitted is published after an application is stored.
type ApplicationSubmitted struct {
	ApplicationID uint      `json:"application_id"`
	ListingID     uint      `json:"listing_id"`
	StudentID     uuid.UUID `json:"student_id"`
	EmployerID    uuid.UUID `json:"employer_id"`
	AppliedAt     time.Time `json:"applied_at"`
}

// ApplicationStatusChanged is published after an owner moves an application.
type ApplicationStatusChanged struct {
	ApplicationID uint      `json:"application_id"`
	ListingID     uint      `json:"listing_id"`
	StudentID     uuid.UUID `json:"student_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
}

// MessagePosted is published after a message is appended to a thread.
type MessagePosted struct {
	MessageID  uint      `json:"message_id"`
	ThreadID   uint      `json:"thread_id"`
	ListingID  uint      `json:"listing_id"`
	StudentID  uuid.UUID `json:"student_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends an event on a channel. Implementations log failures
// instead of returning them.
type Publisher interface {
	Publish(ctx context.Context, channel string, event any)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) {}

// RedisPublisher publishes JSON encoded events with Redis PUBLISH.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a publisher using rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.WarnContext(ctx, "event marshal failed", "channel", channel, "err", err)
		return
	}
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		slog.WarnContext(ctx, "event publish failed", "channel", channel, "err", err)
	}
}
