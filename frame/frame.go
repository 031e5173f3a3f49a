package frame

import "bytes"

// JPEG start-of-image and end-of-image delimiters.
var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// Frame is one completed liveview frame: a full JPEG image plus the
// RTP extension bytes that accompanied it. A Frame is immutable once
// constructed; ownership passes to the queue on push and to the
// consumer on pop.
type Frame struct {
	// JPEG is the complete JPEG image, starting with SOI (0xFFD8) and
	// ending with EOI (0xFFD9).
	JPEG []byte

	// Extension is the most recent RTP header extension decoded while
	// this frame was assembled; empty if no packet carried one.
	Extension []byte
}

// IsJPEG reports whether buf looks like a complete JPEG image: at
// least 4 bytes, an SOI prefix, and an EOI suffix. Buffers assembled
// from a lossy packet stream are accepted only if this holds.
func IsJPEG(buf []byte) bool {
	return len(buf) >= 4 && bytes.HasPrefix(buf, jpegSOI) && bytes.HasSuffix(buf, jpegEOI)
}
