package posebus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/protocol"
	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

// RedisOptions configures the Redis pose bus
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string

	// LatestTTL expires the warm-start key; 0 keeps it forever
	LatestTTL time.Duration

	// WriteTimeout bounds each publish
	WriteTimeout time.Duration
}

// Normalize fills defaults
func (o RedisOptions) Normalize() RedisOptions {
	if o.Prefix == "" {
		o.Prefix = "soccerbot"
	}
	if o.LatestTTL == 0 {
		o.LatestTTL = 10 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 500 * time.Millisecond
	}
	return o
}

// Channel returns the pub/sub channel for a message type
func (o RedisOptions) Channel(t protocol.MessageType) string {
	return fmt.Sprintf("%s:%s", o.Prefix, t)
}

// LatestKey returns the key holding the last published message of a type
func (o RedisOptions) LatestKey(t protocol.MessageType) string {
	return fmt.Sprintf("%s:%s:latest", o.Prefix, t)
}

func newRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("posebus: connect to redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisPublisher publishes envelopes on <prefix>:<type> and keeps the
// latest one under <prefix>:<type>:latest for late subscribers.
type RedisPublisher struct {
	client *redis.Client
	opts   RedisOptions
	logger *slog.Logger
}

// NewRedisPublisher connects and pings Redis
func NewRedisPublisher(ctx context.Context, opts RedisOptions) (*RedisPublisher, error) {
	opts = opts.Normalize()
	client, err := newRedisClient(ctx, opts)
	if err != nil {
		return nil, err
	}

	log.Info("redis pose bus connected", "addr", opts.Addr, "prefix", opts.Prefix)
	return &RedisPublisher{
		client: client,
		opts:   opts,
		logger: log.Component("posebus"),
	}, nil
}

// PublishMessage sends an envelope and stores it as the latest of its type
func (p *RedisPublisher) PublishMessage(ctx context.Context, msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.WriteTimeout)
	defer cancel()

	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, p.opts.Channel(msg.Type), data)
	pipe.Set(ctx, p.opts.LatestKey(msg.Type), data, p.opts.LatestTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("posebus: publish %s: %w", msg.Type, err)
	}
	return nil
}

// PublishPose implements tracking.Publisher
func (p *RedisPublisher) PublishPose(pose tracking.Pose) error {
	msg, err := protocol.NewPoseMessage(pose)
	if err != nil {
		return err
	}
	return p.PublishMessage(context.Background(), msg)
}

// PublishFrame implements tracking.Publisher. Frames are served by the
// dashboard only.
func (p *RedisPublisher) PublishFrame([]byte) error {
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// RedisSubscriber feeds poses from the Redis bus into a Latest
type RedisSubscriber struct {
	client *redis.Client
	opts   RedisOptions
	latest *Latest
	logger *slog.Logger
}

// NewRedisSubscriber connects and pings Redis
func NewRedisSubscriber(ctx context.Context, opts RedisOptions, latest *Latest) (*RedisSubscriber, error) {
	opts = opts.Normalize()
	client, err := newRedisClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &RedisSubscriber{
		client: client,
		opts:   opts,
		latest: latest,
		logger: log.Component("posebus"),
	}, nil
}

// Run warms the Latest from the stored pose, then consumes the channel
// until ctx is cancelled.
func (s *RedisSubscriber) Run(ctx context.Context) error {
	if err := s.warm(ctx); err != nil {
		s.logger.Warn("no warm pose", "error", err)
	}

	sub := s.client.Subscribe(ctx, s.opts.Channel(protocol.TypePose))
	defer sub.Close()

	// Wait for the subscription confirmation so errors surface here
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("posebus: subscribe: %w", err)
	}
	s.logger.Info("subscribed", "channel", s.opts.Channel(protocol.TypePose))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return errors.New("posebus: subscription closed")
			}
			s.handle([]byte(m.Payload))
		}
	}
}

func (s *RedisSubscriber) warm(ctx context.Context) error {
	data, err := s.client.Get(ctx, s.opts.LatestKey(protocol.TypePose)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	s.handle(data)
	return nil
}

func (s *RedisSubscriber) handle(data []byte) {
	pose, err := DecodePose(data)
	if err != nil {
		s.logger.Debug("bad pose message", "error", err)
		return
	}
	s.latest.Store(pose)
}

// Close closes the Redis connection
func (s *RedisSubscriber) Close() error {
	return s.client.Close()
}
