package usecase

import (
	"context"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/internal/service/upstream"
)

// StreamCollector drains the live social stream into the per-symbol post
// buffer that the primary data source consults before spending REST quota.
type StreamCollector struct {
	stream  drepo.PostStream
	buffer  *upstream.PostBuffer
	metrics drepo.Metrics
}

// NewStreamCollector creates a new StreamCollector instance.
func NewStreamCollector(stream drepo.PostStream, buffer *upstream.PostBuffer, metrics drepo.Metrics) *StreamCollector {
	return &StreamCollector{stream: stream, buffer: buffer, metrics: metrics}
}

// IsConnected returns true if the social stream is connected.
func (c *StreamCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *StreamCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	evCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, evCh, errCh)
	return nil
}

func (c *StreamCollector) consume(ctx context.Context, evCh <-chan *models.PostEvent, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case ev := <-evCh:
			if ev == nil {
				continue
			}
			c.buffer.Add(ev.Symbol, ev.Post)
			c.metrics.RecordPostsIngested("stream_live", 1)
		}
	}
}

func (c *StreamCollector) Stop() error { return c.stream.Close() }
