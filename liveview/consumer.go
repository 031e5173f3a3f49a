package liveview

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi/frame"
	"github.com/opd-ai/olympuswifi/rtp"
)

// DefaultUpdateInterval is how often the consumer polls the frame
// queue. 25ms comfortably outpaces the camera's liveview frame rate.
const DefaultUpdateInterval = 25 * time.Millisecond

// RenderedFrame is one display-ready frame: the JPEG after any
// orientation-driven rotation, plus the orientation that was applied.
type RenderedFrame struct {
	JPEG        []byte
	Orientation rtp.Orientation
}

// Sink receives display-ready frames from the consumer. Implementations
// must not retain the JPEG slice beyond the call unless they copy it.
type Sink interface {
	Display(f RenderedFrame)
}

// Consumer is the render half of a liveview session. On every
// scheduler tick it polls the queue without blocking; when a frame is
// present it extracts the orientation from the RTP extension, rotates
// the JPEG accordingly, and hands the result to the sink.
//
// A frame that fails to decode or rotate is skipped, never re-queued,
// and never aborts the tick: the next frame is at most one tick away.
type Consumer struct {
	queue *frame.Queue
	sink  Sink
	stop  func()
}

// NewConsumer creates a consumer draining queue into sink.
func NewConsumer(queue *frame.Queue, sink Sink) *Consumer {
	return &Consumer{queue: queue, sink: sink}
}

// Start begins polling the queue every interval using the given
// scheduler. It returns immediately; use Stop to end polling.
func (c *Consumer) Start(s Scheduler, interval time.Duration) {
	c.stop = s.Schedule(interval, c.Tick)
	logrus.WithFields(logrus.Fields{
		"function": "Consumer.Start",
		"interval": interval.String(),
	}).Info("Liveview consumer started")
}

// Stop ends polling. It does not drain the queue.
func (c *Consumer) Stop() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

// Tick performs one poll of the queue. It is exported so hosts with
// their own event loop can drive the consumer directly instead of
// through a Scheduler.
func (c *Consumer) Tick() {
	f, ok := c.queue.TryPop()
	if !ok {
		return
	}

	orientation := rtp.ExtractOrientation(f.Extension)
	jpeg, err := RotateJPEG(f.JPEG, orientation)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "Consumer.Tick",
			"orientation": orientation.String(),
			"error":       err.Error(),
		}).Debug("Skipping undisplayable frame")
		return
	}

	c.sink.Display(RenderedFrame{JPEG: jpeg, Orientation: orientation})
}
