// Package simulator streams MJPEG over RTP the way the camera does.
//
// It exists for demos and end-to-end tests: point a Streamer at a
// liveview receiver's UDP port and it fragments JPEG images into RTP
// packets, complete with the vendor orientation extension, marker bits
// on frame boundaries, and a continuous sequence number space.
package simulator

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// payloadSize is the MJPEG fragment carried per packet, kept under the
// receiver's 4096-byte datagram limit with headroom for headers.
const payloadSize = 1400

// payloadTypeMJPEG is the static RTP payload type for JPEG video.
const payloadTypeMJPEG = 26

// Streamer sends JPEG frames as RTP packet bursts to one UDP target.
// Sequence numbers are continuous across frames, as they are in the
// camera's stream.
type Streamer struct {
	conn net.Conn
	seq  uint16
	ts   uint32
	ssrc uint32
}

// NewStreamer connects a streamer to a UDP target.
//
// Parameters:
//   - target: host:port of the receiving socket
//
// Returns:
//   - *Streamer: ready to send frames
//   - error: any dial error
func NewStreamer(target string) (*Streamer, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", target, err)
	}

	var ssrcBytes [4]byte
	if _, err := rand.Read(ssrcBytes[:]); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to generate SSRC: %w", err)
	}

	return &Streamer{
		conn: conn,
		seq:  1,
		ssrc: binary.BigEndian.Uint32(ssrcBytes[:]),
	}, nil
}

// SendFrame fragments one JPEG image into RTP packets and sends them.
// The first packet carries the vendor extension with the orientation
// record; the last packet has the marker bit set.
//
// Parameters:
//   - jpeg: a complete JPEG image
//   - orientation: EXIF orientation code (1, 3, 6, or 8)
//
// Returns:
//   - error: the first send or marshal error
func (s *Streamer) SendFrame(jpeg []byte, orientation byte) error {
	if len(jpeg) == 0 {
		return fmt.Errorf("frame cannot be empty")
	}

	for offset := 0; offset < len(jpeg); offset += payloadSize {
		end := offset + payloadSize
		if end > len(jpeg) {
			end = len(jpeg)
		}

		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         end == len(jpeg),
				PayloadType:    payloadTypeMJPEG,
				SequenceNumber: s.seq,
				Timestamp:      s.ts,
				SSRC:           s.ssrc,
			},
			Payload: jpeg[offset:end],
		}
		if offset == 0 {
			pkt.Header.Extension = true
			pkt.Header.ExtensionProfile = 1
			if err := pkt.Header.SetExtension(0, orientationRecord(orientation)); err != nil {
				return fmt.Errorf("failed to set extension: %w", err)
			}
		}

		data, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal RTP packet: %w", err)
		}
		if _, err := s.conn.Write(data); err != nil {
			return fmt.Errorf("failed to send RTP packet: %w", err)
		}
		s.seq++
	}

	s.ts += 3000 // 90kHz clock at 30fps
	logrus.WithFields(logrus.Fields{
		"function": "Streamer.SendFrame",
		"size":     len(jpeg),
		"next_seq": s.seq,
	}).Debug("Sent frame")
	return nil
}

// SkipPackets advances the sequence number without sending anything,
// simulating packet loss.
func (s *Streamer) SkipPackets(n uint16) {
	s.seq += n
}

// Close closes the UDP socket.
func (s *Streamer) Close() error {
	return s.conn.Close()
}

// orientationRecord builds the vendor extension body carrying one
// orientation sub-record: func id 4, one 4-byte word, code in the
// fourth data byte.
func orientationRecord(code byte) []byte {
	return []byte{0x00, 0x04, 0x00, 0x01, 0x00, 0x00, 0x00, code}
}
