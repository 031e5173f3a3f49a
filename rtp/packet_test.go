package rtp

import (
	"bytes"
	"encoding/binary"
	"testing"

	pionrtp "github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDatagram assembles a raw RTP datagram byte by byte for decoder
// tests.
type buildDatagram struct {
	version   byte
	padding   bool
	extension bool
	csrc      [][4]byte
	marker    bool
	seq       uint16
	extBody   []byte
	payload   []byte
	padBytes  []byte // appended verbatim, last byte is the pad count
}

func (b buildDatagram) bytes() []byte {
	var out []byte
	b0 := b.version << 6
	if b.padding {
		b0 |= 0x20
	}
	if b.extension {
		b0 |= 0x10
	}
	b0 |= byte(len(b.csrc))
	b1 := byte(0x1A) // payload type JPEG
	if b.marker {
		b1 |= 0x80
	}
	out = append(out, b0, b1)
	out = binary.BigEndian.AppendUint16(out, b.seq)
	out = binary.BigEndian.AppendUint32(out, 0x12345678) // timestamp
	out = binary.BigEndian.AppendUint32(out, 0xDEADBEEF) // SSRC
	for _, csrc := range b.csrc {
		out = append(out, csrc[:]...)
	}
	if b.extension {
		out = binary.BigEndian.AppendUint16(out, 0xABCD) // profile, ignored
		out = binary.BigEndian.AppendUint16(out, uint16(len(b.extBody)/4))
		out = append(out, b.extBody...)
	}
	out = append(out, b.payload...)
	out = append(out, b.padBytes...)
	return out
}

func TestDecodePacket(t *testing.T) {
	tests := []struct {
		name        string
		datagram    []byte
		expectError bool
		marker      bool
		seq         uint16
		payload     []byte
		extension   []byte
	}{
		{
			name:        "truncated datagram",
			datagram:    make([]byte, 11),
			expectError: true,
		},
		{
			name:        "wrong version",
			datagram:    buildDatagram{version: 1, seq: 7, payload: []byte("x")}.bytes(),
			expectError: true,
		},
		{
			name:     "minimal packet",
			datagram: buildDatagram{version: 2, seq: 4711, payload: []byte("hello")}.bytes(),
			seq:      4711,
			payload:  []byte("hello"),
		},
		{
			name:     "marker bit",
			datagram: buildDatagram{version: 2, marker: true, seq: 65535, payload: []byte("end")}.bytes(),
			marker:   true,
			seq:      65535,
			payload:  []byte("end"),
		},
		{
			name: "CSRC list skipped",
			datagram: buildDatagram{
				version: 2,
				csrc:    [][4]byte{{1, 2, 3, 4}, {5, 6, 7, 8}},
				seq:     1,
				payload: []byte("data"),
			}.bytes(),
			seq:     1,
			payload: []byte("data"),
		},
		{
			name: "extension captured",
			datagram: buildDatagram{
				version:   2,
				extension: true,
				seq:       2,
				extBody:   []byte{0, 4, 0, 1, 0, 0, 0, 6},
				payload:   []byte("frame"),
			}.bytes(),
			seq:       2,
			payload:   []byte("frame"),
			extension: []byte{0, 4, 0, 1, 0, 0, 0, 6},
		},
		{
			name: "extension and CSRC",
			datagram: buildDatagram{
				version:   2,
				extension: true,
				csrc:      [][4]byte{{9, 9, 9, 9}},
				seq:       3,
				extBody:   []byte{0, 1, 0, 0},
				payload:   []byte("p"),
			}.bytes(),
			seq:       3,
			payload:   []byte("p"),
			extension: []byte{0, 1, 0, 0},
		},
		{
			name: "truncated extension body",
			datagram: func() []byte {
				d := buildDatagram{version: 2, extension: true, seq: 5,
					extBody: []byte{0, 4, 0, 1, 0, 0, 0, 1}}.bytes()
				return d[:len(d)-6]
			}(),
			expectError: true,
		},
		{
			name: "zero pad count",
			datagram: buildDatagram{
				version: 2, padding: true, seq: 8,
				payload:  []byte("x"),
				padBytes: []byte{0},
			}.bytes(),
			expectError: true,
		},
		{
			name: "pad count exceeding datagram",
			datagram: buildDatagram{
				version: 2, padding: true, seq: 6,
				payload:  []byte("x"),
				padBytes: []byte{200},
			}.bytes(),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := DecodePacket(tt.datagram)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedPacket)
				assert.Nil(t, pkt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.marker, pkt.Marker)
			assert.Equal(t, tt.seq, pkt.SequenceNumber)
			assert.Equal(t, tt.payload, pkt.Payload)
			if len(tt.extension) == 0 {
				assert.Empty(t, pkt.Extension)
			} else {
				assert.Equal(t, tt.extension, pkt.Extension)
			}
		})
	}
}

// TestDecodePacketPaddingEquivalence verifies that a padded datagram
// decodes to the same payload and extension as its unpadded twin.
func TestDecodePacketPaddingEquivalence(t *testing.T) {
	plain := buildDatagram{
		version:   2,
		extension: true,
		seq:       99,
		extBody:   []byte{0, 4, 0, 1, 0, 0, 0, 3},
		payload:   []byte("jpeg fragment"),
	}
	padded := plain
	padded.padding = true
	padded.padBytes = []byte{0, 0, 3} // three pad bytes, count in the last

	want, err := DecodePacket(plain.bytes())
	require.NoError(t, err)
	got, err := DecodePacket(padded.bytes())
	require.NoError(t, err)

	assert.Equal(t, want.Marker, got.Marker)
	assert.Equal(t, want.SequenceNumber, got.SequenceNumber)
	assert.Equal(t, want.Payload, got.Payload)
	assert.Equal(t, want.Extension, got.Extension)
}

// TestDecodePacketAgainstPion decodes datagrams produced by the
// pion/rtp marshaller, the same library the camera simulator streams
// with.
func TestDecodePacketAgainstPion(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 100)
	extBody := []byte{0, 4, 0, 1, 0, 0, 0, 8}

	src := &pionrtp.Packet{
		Header: pionrtp.Header{
			Version:          2,
			Marker:           true,
			PayloadType:      26,
			SequenceNumber:   1000,
			Timestamp:        90000,
			SSRC:             0x11223344,
			Extension:        true,
			ExtensionProfile: 1,
		},
		Payload: payload,
	}
	require.NoError(t, src.Header.SetExtension(0, extBody))

	datagram, err := src.Marshal()
	require.NoError(t, err)

	pkt, err := DecodePacket(datagram)
	require.NoError(t, err)
	assert.True(t, pkt.Marker)
	assert.Equal(t, uint16(1000), pkt.SequenceNumber)
	assert.Equal(t, payload, pkt.Payload)
	assert.Equal(t, extBody, pkt.Extension)
}
