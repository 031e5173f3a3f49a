// Command mjpeg-sim streams a JPEG file as MJPEG over RTP, imitating
// the camera's liveview broadcast. Useful for testing receivers
// without a camera.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi/simulator"
)

func main() {
	var (
		target      = flag.String("target", "127.0.0.1:40000", "UDP address to stream to")
		file        = flag.String("file", "", "JPEG file to stream (required)")
		fps         = flag.Int("fps", 15, "frames per second")
		orientation = flag.Int("orientation", 1, "EXIF orientation code (1, 3, 6, or 8)")
	)
	flag.Parse()

	if *file == "" {
		logrus.Fatal("Flag -file is required")
	}
	jpeg, err := os.ReadFile(*file)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to read JPEG")
	}

	streamer, err := simulator.NewStreamer(*target)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create streamer")
	}
	defer streamer.Close()

	logrus.WithFields(logrus.Fields{
		"target": *target,
		"fps":    *fps,
		"size":   len(jpeg),
	}).Info("Streaming")

	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()
	for range ticker.C {
		if err := streamer.SendFrame(jpeg, byte(*orientation)); err != nil {
			logrus.WithError(err).Fatal("Failed to send frame")
		}
	}
}
