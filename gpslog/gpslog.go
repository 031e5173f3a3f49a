// Package gpslog converts the GPS track logs an Olympus camera writes
// to its memory card into GPX files.
//
// The camera stores tracks as NMEA sentences in files with a .LOG
// extension: $GPRMC sentences carry position, date, and time; $GPGGA
// sentences carry elevation. Each sentence ends in a vendor checksum
// over the line seeded with 8.
package gpslog

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// TrackPoint is one point of a GPS track.
type TrackPoint struct {
	Latitude  float64
	Longitude float64
	// Elevation in meters, as recorded by the camera. Kept as a string
	// since it is copied verbatim into the GPX output.
	Elevation string
	// Time in ISO 8601 UTC, e.g. "2023-07-14T15:04:05Z".
	Time string
}

// ReadLog parses a camera GPS log. Lines with checksum errors or
// invalid fixes are skipped with a warning; they are common at the
// start of a track while the camera searches for satellites.
//
// Parameters:
//   - r: the .LOG file contents
//
// Returns:
//   - []TrackPoint: the valid track points in file order
//   - error: any read error
func ReadLog(r io.Reader) ([]TrackPoint, error) {
	var track []TrackPoint
	elevation := "0"
	lineNo := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		lineNo++

		components := strings.Split(line, ",")
		if len(components) < 11 {
			continue
		}

		if !checksumOK(line, components[len(components)-1]) {
			logrus.WithFields(logrus.Fields{
				"function": "ReadLog",
				"line":     lineNo,
			}).Warn("Checksum error in GPS log")
			continue
		}

		switch components[0] {
		case "$GPGGA":
			// Elevation in meters; remembered for following $GPRMC
			// points.
			if components[10] == "M" && components[9] != "" {
				elevation = components[9]
			}

		case "$GPRMC":
			point, ok := parseRMC(components, elevation)
			if !ok {
				logrus.WithFields(logrus.Fields{
					"function": "ReadLog",
					"line":     lineNo,
				}).Warn("Invalid GPS fix in log")
				continue
			}
			track = append(track, point)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read GPS log: %w", err)
	}
	return track, nil
}

// checksumOK verifies the camera's line checksum: an XOR over all
// characters before the last comma, seeded with 8, compared against a
// "*XX" trailer.
func checksumOK(line, trailer string) bool {
	cksum := byte(8)
	for i := 0; i < strings.LastIndex(line, ","); i++ {
		cksum ^= line[i]
	}
	return fmt.Sprintf("*%2X", cksum) == trailer
}

// parseRMC converts one $GPRMC sentence into a track point.
func parseRMC(components []string, elevation string) (TrackPoint, bool) {
	tim, status, lat, ns, lon, ew := components[1], components[2],
		components[3], components[4], components[5], components[6]
	date := components[9]

	if status != "A" {
		return TrackPoint{}, false
	}

	latitude, ok := parseCoordinate(lat, 2)
	if !ok {
		return TrackPoint{}, false
	}
	if ns == "S" {
		latitude = -latitude
	}

	longitude, ok := parseCoordinate(lon, 3)
	if !ok {
		return TrackPoint{}, false
	}
	if ew == "W" {
		longitude = -longitude
	}

	tim = strings.TrimSuffix(tim, ".0")
	if len(tim) < 6 || len(date) < 6 {
		return TrackPoint{}, false
	}
	isoTime := fmt.Sprintf("20%s-%s-%sT%s:%s:%sZ",
		date[4:6], date[2:4], date[0:2], tim[0:2], tim[2:4], tim[4:])

	return TrackPoint{
		Latitude:  latitude,
		Longitude: longitude,
		Elevation: elevation,
		Time:      isoTime,
	}, true
}

// parseCoordinate parses an NMEA "dddmm.mmmm" coordinate with the
// given number of degree digits.
func parseCoordinate(s string, degDigits int) (float64, bool) {
	if len(s) < degDigits+3 || s[degDigits+2] != '.' {
		return 0, false
	}
	deg, err := strconv.ParseFloat(s[:degDigits], 64)
	if err != nil {
		return 0, false
	}
	min, err := strconv.ParseFloat(s[degDigits:], 64)
	if err != nil {
		return 0, false
	}
	return deg + min/60, true
}

// GPX output structures, GPX 1.1.
type gpxFile struct {
	XMLName        xml.Name `xml:"gpx"`
	Version        string   `xml:"version,attr"`
	Creator        string   `xml:"creator,attr"`
	Xmlns          string   `xml:"xmlns,attr"`
	XmlnsXSI       string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	Track          gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name    string     `xml:"name"`
	Segment gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat       string `xml:"lat,attr"`
	Lon       string `xml:"lon,attr"`
	Elevation string `xml:"ele"`
	Time      string `xml:"time"`
}

// WriteGPX writes a track as a GPX 1.1 document.
//
// Parameters:
//   - w: destination
//   - name: track name, conventionally the log file's base name
//   - track: points from ReadLog
//
// Returns:
//   - error: any encoding or write error
func WriteGPX(w io.Writer, name string, track []TrackPoint) error {
	doc := gpxFile{
		Version:        "1.1",
		Creator:        "github.com/opd-ai/olympuswifi",
		Xmlns:          "http://www.topografix.com/GPX/1/1",
		XmlnsXSI:       "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://www.topografix.com/GPX/1/1 http://www.topografix.com/GPX/1/1/gpx.xsd",
		Track: gpxTrack{
			Name:    name,
			Segment: gpxSegment{Points: make([]gpxPoint, 0, len(track))},
		},
	}
	for _, p := range track {
		doc.Track.Segment.Points = append(doc.Track.Segment.Points, gpxPoint{
			Lat:       strconv.FormatFloat(p.Latitude, 'f', 6, 64),
			Lon:       strconv.FormatFloat(p.Longitude, 'f', 6, 64),
			Elevation: p.Elevation,
			Time:      p.Time,
		})
	}

	if _, err := io.WriteString(w,
		"<?xml version=\"1.0\" encoding=\"utf-8\" standalone=\"yes\"?>\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}
	return enc.Flush()
}
