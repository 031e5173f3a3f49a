// Package rtp implements the RTP layer of the camera's MJPEG liveview
// stream.
//
// The camera broadcasts its live view as MJPEG over RTP on a UDP port
// chosen by the client. This package provides the pieces needed to turn
// that lossy, reorderable datagram stream back into discrete JPEG
// frames:
//
//   - DecodePacket parses one UDP datagram into marker bit, sequence
//     number, payload, and the vendor header extension.
//   - Assembler concatenates packet payloads into frames, using RTP
//     sequence continuity to detect loss and the marker bit to detect
//     frame boundaries.
//   - ExtractOrientation walks the vendor extension sub-records and
//     returns the camera orientation carried with each frame.
//
// The decoder is a pure function over a single datagram; the assembler
// is deliberately not thread-safe and is owned by exactly one receive
// loop.
package rtp
