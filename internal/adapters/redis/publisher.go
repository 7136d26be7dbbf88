// Package redis publishes geofence transitions to Redis.
//
// Each transition is PUBLISHed as JSON on a channel and mirrored into a hash of region id to "1" (inside) or "0".
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/desertthunder/soundfence/internal/geofence"
	backend "github.com/redis/go-redis/v9"
)

const (
	DefaultChannel = "soundfence:transitions"
	DefaultPrefix  = "soundfence:"
)

// Publisher implements tasks.Sink on top of a Redis client.
type Publisher struct {
	client  *backend.Client
	channel string
	prefix  string
}

type Option func(*Publisher)

// WithChannel sets the pub/sub channel; empty keeps the default.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithPrefix sets the key prefix for the state hash; empty keeps the default.
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// New creates a publisher with its own client.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
		prefix:  DefaultPrefix,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Publisher) Channel() string  { return p.channel }
func (p *Publisher) StateKey() string { return p.prefix + "state" }

// Ping checks connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

type messagePosition struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// message is the published payload. Non-finite coordinates and distances are sent as null.
type message struct {
	RegionID string             `json:"region_id"`
	Title    string             `json:"title"`
	Kind     geofence.EventKind `json:"kind"`
	Position messagePosition    `json:"position"`
	Distance *float64           `json:"distance_meters"`
}

func newMessage(ev geofence.TransitionEvent) message {
	return message{
		RegionID: ev.RegionID,
		Title:    ev.Title,
		Kind:     ev.Kind,
		Position: messagePosition{
			Latitude:  finite(ev.Position.Latitude),
			Longitude: finite(ev.Position.Longitude),
		},
		Distance: finite(ev.Distance),
	}
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Handle publishes ev and updates the state hash in one pipeline.
func (p *Publisher) Handle(ctx context.Context, ev geofence.TransitionEvent) error {
	data, err := json.Marshal(newMessage(ev))
	if err != nil {
		return fmt.Errorf("failed to marshal transition: %w", err)
	}

	flag := "0"
	if ev.Kind == geofence.Entered {
		flag = "1"
	}

	pipe := p.client.TxPipeline()
	pipe.HSet(ctx, p.StateKey(), ev.RegionID, flag)
	pipe.Publish(ctx, p.channel, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish transition: %w", err)
	}
	return nil
}

// State reads the containment hash back; regions never reported are absent.
func (p *Publisher) State(ctx context.Context) (map[string]bool, error) {
	raw, err := p.client.HGetAll(ctx, p.StateKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	state := make(map[string]bool, len(raw))
	for id, v := range raw {
		state[id] = v == "1"
	}
	return state, nil
}

// Subscribe returns the raw subscription for the transitions channel.
func (p *Publisher) Subscribe(ctx context.Context) *backend.PubSub {
	return p.client.Subscribe(ctx, p.channel)
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
