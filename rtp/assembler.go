package rtp

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi/frame"
)

// Assembler reassembles JPEG frames from a stream of decoded RTP
// packets. It is a small state machine with two states:
//
//   - assembling: payloads are appended to the frame buffer
//   - dropping: the current frame was corrupted by a sequence gap and
//     further payload is discarded until the next marker packet
//
// Sequence numbers are tracked modulo 65536 across both states, so a
// single lost packet costs exactly one frame: the marker packet that
// ends the corrupted frame puts the assembler back into the assembling
// state for the next one.
//
// An Assembler is owned by exactly one receive loop and is not safe
// for concurrent use.
type Assembler struct {
	buf        []byte
	extension  []byte
	assembling bool
	prevSeq    uint16
}

// NewAssembler creates an assembler ready to accumulate a frame,
// expecting the next packet to carry sequence number 1.
func NewAssembler() *Assembler {
	return &Assembler{assembling: true}
}

// Push feeds one decoded packet into the assembler.
//
// When pkt carries the marker bit and completes a buffer with valid
// JPEG delimiters, Push returns the finished frame; otherwise it
// returns nil. Buffers without valid delimiters are discarded silently
// since frame loss is expected under packet drop.
//
// Parameters:
//   - pkt: one decoded RTP packet, in arrival order
//
// Returns:
//   - *frame.Frame: the completed frame, or nil if this packet did not
//     complete one
func (a *Assembler) Push(pkt *DecodedPacket) *frame.Frame {
	if a.assembling {
		a.buf = append(a.buf, pkt.Payload...)
	}

	// A sequence discontinuity invalidates the frame in progress,
	// including the payload appended just above.
	if expected := a.prevSeq + 1; pkt.SequenceNumber != expected {
		if a.assembling {
			logrus.WithFields(logrus.Fields{
				"function": "Assembler.Push",
				"expected": expected,
				"received": pkt.SequenceNumber,
			}).Debug("Sequence gap, dropping frame in progress")
		}
		a.reset(false)
	}

	// Sequence tracking survives corrupted frames.
	a.prevSeq = pkt.SequenceNumber

	// Last-writer-wins: the camera attaches the extension to one
	// packet per frame, but nothing enforces that.
	if len(pkt.Extension) > 0 {
		a.extension = append(a.extension[:0], pkt.Extension...)
	}

	if !pkt.Marker {
		return nil
	}

	var completed *frame.Frame
	if len(a.buf) > 0 {
		if frame.IsJPEG(a.buf) {
			completed = &frame.Frame{JPEG: a.buf, Extension: a.extension}
		} else {
			logrus.WithFields(logrus.Fields{
				"function": "Assembler.Push",
				"size":     len(a.buf),
			}).Debug("Discarding frame without JPEG delimiters")
		}
	}

	// The marker always starts a fresh frame, whether or not this one
	// was emitted. This is how the assembler resynchronizes after loss.
	a.reset(true)
	return completed
}

// reset clears the frame buffer and extension and sets the assembling
// state. Completed frames own the old slices, so fresh ones are
// allocated lazily on the next append.
func (a *Assembler) reset(assembling bool) {
	a.buf = nil
	a.extension = nil
	a.assembling = assembling
}
