package liveview

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi/frame"
	"github.com/opd-ai/olympuswifi/rtp"
)

const (
	// receiveBufferSize bounds a single liveview datagram. The camera
	// fragments frames well below this.
	receiveBufferSize = 4096

	// readTimeout exists solely to make shutdown cooperative; it does
	// not signal data loss.
	readTimeout = time.Second
)

// Receiver owns the liveview UDP socket and reassembles the camera's
// RTP stream into JPEG frames, pushing each completed frame onto the
// queue it was created with.
//
// The receive loop is single-threaded: the decoder and assembler state
// are touched by no other goroutine, so they need no locking. The only
// shared objects are the frame queue and the atomic stop flag.
type Receiver struct {
	conn    *net.UDPConn
	queue   *frame.Queue
	stopped atomic.Bool
	done    chan struct{}

	packets uint64
	frames  uint64
}

// Listen binds a UDP socket on the given port on all interfaces and
// starts the receive loop in its own goroutine. Bind the receiver
// before telling the camera to start broadcasting, so no initial
// packets are lost.
//
// Parameters:
//   - port: UDP port to bind; 0 picks a free port (see LocalPort)
//   - queue: destination for completed frames
//
// Returns:
//   - *Receiver: the running receiver
//   - error: any socket bind error
func Listen(port int, queue *frame.Queue) (*Receiver, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to bind liveview port %d: %w", port, err)
	}

	r := &Receiver{
		conn:  conn,
		queue: queue,
		done:  make(chan struct{}),
	}

	logrus.WithFields(logrus.Fields{
		"function": "Listen",
		"port":     r.LocalPort(),
	}).Info("Liveview receiver listening")

	go r.loop()
	return r, nil
}

// LocalPort returns the UDP port the receiver is bound to.
func (r *Receiver) LocalPort() int {
	return r.conn.LocalAddr().(*net.UDPAddr).Port
}

// Stop requests shutdown. The receive loop observes the flag at its
// next read timeout, so shutdown latency is bounded by about one
// second. Use Wait to block until the socket is closed.
func (r *Receiver) Stop() {
	r.stopped.Store(true)
}

// Wait blocks until the receive loop has exited and the socket is
// closed.
func (r *Receiver) Wait() {
	<-r.done
}

// loop is the receive loop. It exits when Stop has been called and a
// read timeout fires, or on any fatal socket error. No retries are
// performed; recovery means starting a new liveview session.
func (r *Receiver) loop() {
	defer close(r.done)
	defer r.conn.Close()

	asm := rtp.NewAssembler()
	buf := make([]byte, receiveBufferSize)

	for {
		_ = r.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				if r.stopped.Load() {
					logrus.WithFields(logrus.Fields{
						"function": "Receiver.loop",
						"packets":  r.packets,
						"frames":   r.frames,
					}).Info("Liveview receiver shutting down")
					return
				}
				continue
			}
			logrus.WithFields(logrus.Fields{
				"function": "Receiver.loop",
				"error":    err.Error(),
			}).Error("Error reading liveview socket")
			return
		}

		r.packets++
		pkt, err := rtp.DecodePacket(buf[:n])
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Receiver.loop",
				"size":     n,
				"error":    err.Error(),
			}).Debug("Dropping malformed packet")
			continue
		}

		if f := asm.Push(pkt); f != nil {
			r.frames++
			r.queue.Push(*f)
		}
	}
}
