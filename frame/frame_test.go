package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsJPEG(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want bool
	}{
		{"nil", nil, false},
		{"empty", []byte{}, false},
		{"markers only, too short", []byte{0xFF, 0xD8, 0xD9}, false},
		{"minimal", []byte{0xFF, 0xD8, 0xFF, 0xD9}, true},
		{"with body", []byte{0xFF, 0xD8, 'b', 'o', 'd', 'y', 0xFF, 0xD9}, true},
		{"missing SOI", []byte{0x00, 0xD8, 'x', 0xFF, 0xD9}, false},
		{"missing EOI", []byte{0xFF, 0xD8, 'x', 0xFF, 0x00}, false},
		{"truncated tail", []byte{0xFF, 0xD8, 'x', 0xFF}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsJPEG(tt.buf))
		})
	}
}
