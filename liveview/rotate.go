package liveview

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"

	"github.com/opd-ai/olympuswifi/rtp"
)

// rotatedJPEGQuality is the quality used when re-encoding a rotated
// frame. The camera's liveview JPEGs are themselves heavily compressed,
// so a high re-encode quality loses nothing visible.
const rotatedJPEGQuality = 90

// RotateJPEG applies the rotation named by orientation to a JPEG image
// and returns the re-encoded result.
//
// OrientationNormal and OrientationUnknown return data unchanged
// without decoding, which keeps the common case free.
//
// Note the EXIF convention: code 6 (Rotate90CW) means the image must
// be rotated 90 degrees clockwise for display, which is a 270-degree
// counter-clockwise rotation in imaging terms.
//
// Parameters:
//   - data: a complete JPEG image
//   - orientation: rotation to apply
//
// Returns:
//   - []byte: the rotated JPEG, or data itself when no rotation applies
//   - error: any JPEG decode or encode failure
func RotateJPEG(data []byte, orientation rtp.Orientation) ([]byte, error) {
	if orientation == rtp.OrientationNormal || orientation == rtp.OrientationUnknown {
		return data, nil
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	var rotated image.Image
	switch orientation {
	case rtp.OrientationRotate180:
		rotated = imaging.Rotate180(img)
	case rtp.OrientationRotate90CW:
		rotated = imaging.Rotate270(img)
	case rtp.OrientationRotate270CW:
		rotated = imaging.Rotate90(img)
	default:
		return data, nil
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, rotated, &jpeg.Options{Quality: rotatedJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode rotated frame: %w", err)
	}
	return out.Bytes(), nil
}
