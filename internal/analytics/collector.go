// Package analytics ships search telemetry to Kafka for offline analysis.
// The collector is fire-and-forget: a full buffer drops events rather than
// ever blocking a search.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/kafka"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/logger"
)

// SearchEvent records one resolved search.
type SearchEvent struct {
	Source     string    `json:"source"`
	SearchType string    `json:"search_type"`
	Query      string    `json:"query"`
	Page       int       `json:"page"`
	LatencyMs  int64     `json:"latency_ms"`
	Outcome    string    `json:"outcome"`
	TotalCount int       `json:"total_count"`
	Degraded   bool      `json:"degraded"`
	Timestamp  time.Time `json:"timestamp"`
}

// Collector buffers search events and publishes them asynchronously.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan SearchEvent
	logger   *slog.Logger
	done     chan struct{}
}

// NewCollector creates a Collector with the given buffer size.
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan SearchEvent, bufferSize),
		logger:   logger.WithComponent("analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publishing loop. It runs until ctx is cancelled or
// Close is called, draining whatever is buffered on the way out.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues an event without blocking; events are dropped when the
// buffer is full.
func (c *Collector) Track(event SearchEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the loop to finish.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event SearchEvent) {
	if err := c.producer.Publish(ctx, kafka.Event{Key: event.Source, Value: event}); err != nil {
		c.logger.Error("failed to publish search event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
