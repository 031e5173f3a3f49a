package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// MaxQueueSize is the maximum number of frames the queue holds at any
// instant. At the camera's liveview frame rate this is roughly three
// seconds of video; anything older is stale for a live display.
const MaxQueueSize = 50

// ErrTimeout is returned by Queue.PopTimeout when no frame arrives
// within the deadline. A stalled stream usually means the camera's UDP
// packets never reach us, for example because a local firewall blocks
// inbound UDP.
var ErrTimeout = errors.New("timed out waiting for a liveview frame")

// Queue is a bounded FIFO hand-off between the receive loop (producer)
// and the render loop (consumer). When full, Push evicts the oldest
// frame rather than blocking; delivery order is FIFO and no frame is
// ever delivered twice.
//
// The queue performs its own synchronization and is safe for exactly
// one producer and one consumer operating concurrently.
type Queue struct {
	ch      chan Frame
	dropped uint64
}

// NewQueue creates an empty frame queue bounded at MaxQueueSize.
func NewQueue() *Queue {
	return &Queue{ch: make(chan Frame, MaxQueueSize)}
}

// Push inserts f at the tail of the queue. If the queue is full the
// oldest frame is evicted first. Push never blocks the producer.
func (q *Queue) Push(f Frame) {
	for {
		select {
		case q.ch <- f:
			return
		default:
		}

		// Full: drop the oldest entry to make room. The consumer may
		// race us and drain the queue first, in which case the retry
		// above succeeds immediately.
		select {
		case <-q.ch:
			q.dropped++
			logrus.WithFields(logrus.Fields{
				"function": "Queue.Push",
				"dropped":  q.dropped,
			}).Debug("Queue full, evicted oldest frame")
		default:
		}
	}
}

// TryPop removes and returns the oldest frame without blocking. The
// second return value is false if the queue was empty.
func (q *Queue) TryPop() (Frame, bool) {
	select {
	case f := <-q.ch:
		return f, true
	default:
		return Frame{}, false
	}
}

// PopTimeout removes and returns the oldest frame, waiting up to d for
// one to arrive.
//
// Returns:
//   - Frame: the oldest queued frame
//   - error: ErrTimeout (wrapped, with a hint about inbound UDP
//     firewall rules) if no frame arrived within d
func (q *Queue) PopTimeout(d time.Duration) (Frame, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case f := <-q.ch:
		return f, nil
	case <-timer.C:
		return Frame{}, fmt.Errorf(
			"%w: no frame within %s; check firewall rules for inbound UDP traffic from the camera",
			ErrTimeout, d)
	}
}

// Len returns the number of frames currently queued.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped returns the number of frames evicted by the drop-oldest
// policy since the queue was created. It is maintained by the producer
// and is only exact when read from the producer's goroutine.
func (q *Queue) Dropped() uint64 {
	return q.dropped
}
