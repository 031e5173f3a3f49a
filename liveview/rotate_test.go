package liveview

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/olympuswifi/rtp"
)

// encodeTestJPEG renders a small gradient so rotated output stays a
// valid, non-trivial image.
func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestRotateJPEG(t *testing.T) {
	src := encodeTestJPEG(t, 32, 16)

	tests := []struct {
		name        string
		orientation rtp.Orientation
		wantW       int
		wantH       int
	}{
		{"rotate 180 keeps dimensions", rtp.OrientationRotate180, 32, 16},
		{"rotate 90 cw swaps dimensions", rtp.OrientationRotate90CW, 16, 32},
		{"rotate 270 cw swaps dimensions", rtp.OrientationRotate270CW, 16, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RotateJPEG(src, tt.orientation)
			require.NoError(t, err)
			w, h := decodeSize(t, out)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestRotateJPEGPassThrough(t *testing.T) {
	src := []byte("not even a jpeg")

	// Normal and unknown orientations skip decoding entirely, so even
	// garbage passes through untouched.
	for _, o := range []rtp.Orientation{rtp.OrientationNormal, rtp.OrientationUnknown} {
		out, err := RotateJPEG(src, o)
		require.NoError(t, err)
		assert.Equal(t, src, out)
	}
}

func TestRotateJPEGInvalidImage(t *testing.T) {
	_, err := RotateJPEG([]byte{0xFF, 0xD8, 0x00, 0xFF, 0xD9}, rtp.OrientationRotate180)
	assert.Error(t, err)
}
