package rtp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedPacket is returned by DecodePacket for datagrams that are
// not valid RTP version 2 packets. Such packets are dropped by the
// receive loop and never reach the assembler.
var ErrMalformedPacket = errors.New("malformed RTP packet")

// headerSize is the fixed RTP base header size in bytes.
const headerSize = 12

// DecodedPacket holds the fields of one RTP packet that the MJPEG
// frame assembly cares about. Timestamp and SSRC are parsed
// structurally by DecodePacket but not retained.
//
// Payload and Extension alias the datagram passed to DecodePacket; they
// are only valid until the receive buffer is reused. The Assembler
// copies both before the next packet is read.
type DecodedPacket struct {
	// Marker is the RTP marker bit; the camera sets it on the last
	// packet of each JPEG frame.
	Marker bool

	// SequenceNumber is the big-endian RTP sequence number. It wraps
	// modulo 65536.
	SequenceNumber uint16

	// Payload is the MJPEG payload fragment carried by this packet.
	Payload []byte

	// Extension is the body of the RTP header extension, or empty if
	// the packet carries none. The camera uses it for per-frame
	// metadata such as orientation.
	Extension []byte
}

// DecodePacket parses one UDP datagram as an RTP version 2 packet.
//
// The layout follows RFC 3550: a 12-byte base header, an optional CSRC
// list, an optional header extension, and the payload. Padding, when
// flagged, is stripped from the tail of the whole datagram before any
// offsets are computed, using the last byte as the pad count. A pad
// count of zero, which RFC 3550 forbids, is rejected as malformed
// rather than treated as a request to empty the packet.
//
// Parameters:
//   - datagram: one complete UDP datagram as received from the socket
//
// Returns:
//   - *DecodedPacket: parsed marker, sequence number, payload, extension
//   - error: ErrMalformedPacket if the datagram is truncated or not
//     RTP version 2
func DecodePacket(datagram []byte) (*DecodedPacket, error) {
	if len(datagram) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d",
			ErrMalformedPacket, len(datagram), headerSize)
	}

	version := datagram[0] >> 6
	if version != 2 {
		return nil, fmt.Errorf("%w: version %d, expected 2", ErrMalformedPacket, version)
	}

	padding := datagram[0]&0x20 != 0
	extension := datagram[0]&0x10 != 0
	csrcCount := int(datagram[0] & 0x0F)

	pkt := &DecodedPacket{
		Marker:         datagram[1]&0x80 != 0,
		SequenceNumber: binary.BigEndian.Uint16(datagram[2:4]),
	}

	// Bytes 4-7 (timestamp) and 8-11 (SSRC) are part of the fixed
	// header but unused downstream.

	// Padding is removed from the datagram tail before any further
	// offset arithmetic.
	if padding {
		pad := int(datagram[len(datagram)-1])
		if pad == 0 || len(datagram)-pad < headerSize {
			return nil, fmt.Errorf("%w: pad count %d exceeds datagram", ErrMalformedPacket, pad)
		}
		datagram = datagram[:len(datagram)-pad]
	}

	offset := headerSize + 4*csrcCount
	if offset > len(datagram) {
		return nil, fmt.Errorf("%w: truncated CSRC list", ErrMalformedPacket)
	}

	if !extension {
		pkt.Payload = datagram[offset:]
		return pkt, nil
	}

	// Header extension: 2 bytes profile id (ignored), 2 bytes length
	// in 32-bit words, then the extension body.
	if offset+4 > len(datagram) {
		return nil, fmt.Errorf("%w: truncated extension header", ErrMalformedPacket)
	}
	extLen := 4 * int(binary.BigEndian.Uint16(datagram[offset+2:offset+4]))
	bodyStart := offset + 4
	if bodyStart+extLen > len(datagram) {
		return nil, fmt.Errorf("%w: extension body of %d bytes exceeds datagram", ErrMalformedPacket, extLen)
	}

	pkt.Extension = datagram[bodyStart : bodyStart+extLen]
	pkt.Payload = datagram[bodyStart+extLen:]
	return pkt, nil
}
