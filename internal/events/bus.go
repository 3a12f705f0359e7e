// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, e Event) error

// Config tunes the bus.
type Config struct {
	// BufferSize is the per-subscriber output channel buffer.
	BufferSize int64

	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:           256,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
	}
}

// Bus is an in-process publisher plus a router that dispatches to handlers.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates the pub/sub and router. Register handlers with Handle
// before calling Run.
func NewBus(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	b := &Bus{pubsub: pubsub, router: router, logger: logger}

	// Outer to inner: drop after retries, recover panics, retry.
	router.AddMiddleware(b.dropFailed)
	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      2.0,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	return b, nil
}

// Publish sends e on its topic. The correlation ID from ctx, if any,
// travels in message metadata.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	if err := e.Validate(); err != nil {
		return err
	}
	payload, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(e.EventID, payload)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}

	if err := b.pubsub.Publish(e.Topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Topic, err)
	}
	metrics.RecordEventPublished(e.Topic)
	return nil
}

// Handle registers fn for topic under a unique handler name.
func (b *Bus) Handle(name, topic string, fn Handler) {
	b.router.AddConsumerHandler(name, topic, b.pubsub, func(msg *message.Message) error {
		ctx := msg.Context()
		if id := middleware.MessageCorrelationID(msg); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		}

		e, err := Unmarshal(msg.Payload)
		if err != nil {
			// Undecodable payloads never succeed on retry.
			metrics.RecordEventProcessed(topic, err)
			logging.Ctx(ctx).Warn().Err(err).
				Str("topic", topic).
				Str("message_id", msg.UUID).
				Msg("Dropping malformed event")
			return nil
		}

		err = fn(ctx, e)
		metrics.RecordEventProcessed(topic, err)
		return err
	})
}

// Run starts the router and blocks until ctx is canceled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once the router has started all handlers.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close stops the router and the pub/sub. It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	routerErr := b.router.Close()
	pubsubErr := b.pubsub.Close()
	return errors.Join(routerErr, pubsubErr)
}

// dropFailed acks messages whose handler still fails after retries, so
// gochannel does not redeliver them forever.
func (b *Bus) dropFailed(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			b.logger.Error("Dropping event after retries", err, watermill.LogFields{
				"message_id": msg.UUID,
				"handler":    message.HandlerNameFromCtx(msg.Context()),
			})
			return nil, nil
		}
		return out, nil
	}
}
