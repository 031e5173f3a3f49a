package rtp

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"
)

// Orientation is the camera orientation carried in the liveview RTP
// extension. The wire codes match EXIF orientation values.
type Orientation uint8

const (
	// OrientationUnknown means no orientation record was found or the
	// record carried an unrecognized code. Frames are displayed as-is.
	OrientationUnknown Orientation = iota
	// OrientationNormal is EXIF code 1: no rotation.
	OrientationNormal
	// OrientationRotate180 is EXIF code 3.
	OrientationRotate180
	// OrientationRotate90CW is EXIF code 6: rotate 90 degrees clockwise.
	OrientationRotate90CW
	// OrientationRotate270CW is EXIF code 8: rotate 270 degrees clockwise.
	OrientationRotate270CW
)

// String returns a human-readable orientation name.
func (o Orientation) String() string {
	switch o {
	case OrientationNormal:
		return "normal"
	case OrientationRotate180:
		return "rotate-180"
	case OrientationRotate90CW:
		return "rotate-90-cw"
	case OrientationRotate270CW:
		return "rotate-270-cw"
	default:
		return "unknown"
	}
}

// funcIDOrientation is the extension sub-record id of the orientation
// record.
const funcIDOrientation = 4

// ExtractOrientation walks the sub-records of a liveview RTP extension
// and returns the orientation of the frame it was attached to.
//
// Each sub-record is a 2-byte big-endian func id, a 2-byte big-endian
// length in 4-byte words, and a body of 4*length bytes. The orientation
// record (func id 4) carries the EXIF orientation code in the fourth
// body byte.
//
// A missing record, a truncated record, or an unrecognized code all
// yield OrientationUnknown. Malformed extensions are expected under
// packet loss and are never an error.
func ExtractOrientation(extension []byte) Orientation {
	offset := 0
	for offset < len(extension) {
		if offset+4 > len(extension) {
			logrus.WithFields(logrus.Fields{
				"function": "ExtractOrientation",
				"offset":   offset,
				"length":   len(extension),
			}).Debug("Truncated extension sub-record header")
			return OrientationUnknown
		}

		funcID := binary.BigEndian.Uint16(extension[offset : offset+2])
		bodyLen := 4 * int(binary.BigEndian.Uint16(extension[offset+2:offset+4]))
		offset += 4

		if funcID == funcIDOrientation {
			if offset+4 > len(extension) {
				logrus.WithFields(logrus.Fields{
					"function": "ExtractOrientation",
					"offset":   offset,
					"length":   len(extension),
				}).Debug("Truncated orientation record")
				return OrientationUnknown
			}
			return orientationFromCode(extension[offset+3])
		}

		offset += bodyLen
	}
	return OrientationUnknown
}

// orientationFromCode maps an EXIF orientation code to an Orientation.
// Codes other than 1, 3, 6, and 8 are not produced by the camera and
// map to OrientationUnknown.
func orientationFromCode(code byte) Orientation {
	switch code {
	case 1:
		return OrientationNormal
	case 3:
		return OrientationRotate180
	case 6:
		return OrientationRotate90CW
	case 8:
		return OrientationRotate270CW
	default:
		logrus.WithFields(logrus.Fields{
			"function": "orientationFromCode",
			"code":     code,
		}).Debug("Unrecognized orientation code")
		return OrientationUnknown
	}
}
