package rtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pkt(seq uint16, marker bool, payload []byte) *DecodedPacket {
	return &DecodedPacket{Marker: marker, SequenceNumber: seq, Payload: payload}
}

// sync advances the assembler to just after a frame boundary so the
// next expected sequence number is seq+1. A fresh assembler expects
// sequence 1; real streams start anywhere, so tests resynchronize the
// same way a receiver does, with a marker packet.
func sync(a *Assembler, seq uint16) {
	a.Push(pkt(seq, true, nil))
}

func TestAssemblerEmitsContiguousFrame(t *testing.T) {
	a := NewAssembler()
	sync(a, 9)

	require.Nil(t, a.Push(pkt(10, false, []byte{0xFF, 0xD8, 'A', 'A', 'A'})))
	emitted := a.Push(pkt(11, true, []byte{'B', 'B', 'B', 0xFF, 0xD9}))

	require.NotNil(t, emitted)
	assert.Equal(t, []byte{0xFF, 0xD8, 'A', 'A', 'A', 'B', 'B', 'B', 0xFF, 0xD9}, emitted.JPEG)
	assert.Empty(t, emitted.Extension)
}

func TestAssemblerDropsFrameOnGap(t *testing.T) {
	a := NewAssembler()
	sync(a, 9)

	require.Nil(t, a.Push(pkt(10, false, []byte{0xFF, 0xD8, 'A'})))
	// Sequence 11 lost.
	require.Nil(t, a.Push(pkt(12, false, []byte{'B'})))
	assert.Nil(t, a.Push(pkt(13, true, []byte{'C', 0xFF, 0xD9})))
}

func TestAssemblerResynchronizesAfterDrop(t *testing.T) {
	a := NewAssembler()
	sync(a, 9)

	require.Nil(t, a.Push(pkt(10, false, []byte{0xFF, 0xD8, 'A'})))
	require.Nil(t, a.Push(pkt(12, false, []byte{'B'})))       // gap, frame dropped
	require.Nil(t, a.Push(pkt(13, true, []byte{0xFF, 0xD9}))) // boundary, no emit

	// The next contiguous frame comes through intact.
	require.Nil(t, a.Push(pkt(14, false, []byte{0xFF, 0xD8, 'X'})))
	emitted := a.Push(pkt(15, true, []byte{'Y', 0xFF, 0xD9}))
	require.NotNil(t, emitted)
	assert.Equal(t, []byte{0xFF, 0xD8, 'X', 'Y', 0xFF, 0xD9}, emitted.JPEG)
}

func TestAssemblerSequenceWrap(t *testing.T) {
	a := NewAssembler()
	sync(a, 65534)

	require.Nil(t, a.Push(pkt(65535, false, []byte{0xFF, 0xD8, 'W'})))
	emitted := a.Push(pkt(0, true, []byte{'Z', 0xFF, 0xD9}))

	require.NotNil(t, emitted)
	assert.Equal(t, []byte{0xFF, 0xD8, 'W', 'Z', 0xFF, 0xD9}, emitted.JPEG)
}

func TestAssemblerDiscardsInvalidJPEG(t *testing.T) {
	a := NewAssembler()
	sync(a, 9)

	tests := []struct {
		name     string
		payloads [][]byte
	}{
		{
			name:     "missing start marker",
			payloads: [][]byte{{'A', 'A'}, {'B', 0xFF, 0xD9}},
		},
		{
			name:     "missing end marker",
			payloads: [][]byte{{0xFF, 0xD8, 'A'}, {'B', 'B'}},
		},
		{
			name:     "too short",
			payloads: [][]byte{{0xFF, 0xD8}, {0xD9}},
		},
	}

	seq := uint16(10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, payload := range tt.payloads {
				last := i == len(tt.payloads)-1
				assert.Nil(t, a.Push(pkt(seq, last, payload)))
				seq++
			}
		})
	}
}

func TestAssemblerSingleDatagramFrame(t *testing.T) {
	a := NewAssembler()
	sync(a, 0)

	emitted := a.Push(pkt(1, true, []byte{0xFF, 0xD8, 'J', 0xFF, 0xD9}))
	require.NotNil(t, emitted)
	assert.Equal(t, []byte{0xFF, 0xD8, 'J', 0xFF, 0xD9}, emitted.JPEG)
}

func TestAssemblerExtensionLastWriterWins(t *testing.T) {
	a := NewAssembler()
	sync(a, 9)

	first := &DecodedPacket{
		SequenceNumber: 10,
		Payload:        []byte{0xFF, 0xD8, 'A'},
		Extension:      []byte{0, 4, 0, 1, 0, 0, 0, 1},
	}
	second := &DecodedPacket{
		SequenceNumber: 11,
		Marker:         true,
		Payload:        []byte{'B', 0xFF, 0xD9},
		Extension:      []byte{0, 4, 0, 1, 0, 0, 0, 6},
	}

	require.Nil(t, a.Push(first))
	emitted := a.Push(second)
	require.NotNil(t, emitted)
	assert.Equal(t, []byte{0, 4, 0, 1, 0, 0, 0, 6}, emitted.Extension)
	assert.Equal(t, OrientationRotate90CW, ExtractOrientation(emitted.Extension))
}

func TestAssemblerExtensionPersistsAcrossPackets(t *testing.T) {
	a := NewAssembler()
	sync(a, 9)

	first := &DecodedPacket{
		SequenceNumber: 10,
		Payload:        []byte{0xFF, 0xD8, 'A'},
		Extension:      []byte{0, 4, 0, 1, 0, 0, 0, 3},
	}
	// Later packets of the frame carry no extension.
	require.Nil(t, a.Push(first))
	emitted := a.Push(pkt(11, true, []byte{'B', 0xFF, 0xD9}))

	require.NotNil(t, emitted)
	assert.Equal(t, OrientationRotate180, ExtractOrientation(emitted.Extension))
}

func TestAssemblerEmittedFramesAreIndependent(t *testing.T) {
	a := NewAssembler()
	sync(a, 0)

	one := a.Push(pkt(1, true, []byte{0xFF, 0xD8, '1', 0xFF, 0xD9}))
	two := a.Push(pkt(2, true, []byte{0xFF, 0xD8, '2', 0xFF, 0xD9}))

	require.NotNil(t, one)
	require.NotNil(t, two)
	assert.Equal(t, byte('1'), one.JPEG[2])
	assert.Equal(t, byte('2'), two.JPEG[2])
}
