// Command log2gpx converts the GPS track logs an Olympus camera writes
// (NMEA sentences in .LOG files) into GPX files next to them.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi/gpslog"
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		logrus.Fatal("Usage: log2gpx file.LOG [file.LOG ...]")
	}

	for _, logFile := range flag.Args() {
		if err := convert(logFile); err != nil {
			logrus.WithFields(logrus.Fields{
				"file":  logFile,
				"error": err.Error(),
			}).Fatal("Conversion failed")
		}
	}
}

func convert(logFile string) error {
	in, err := os.Open(logFile)
	if err != nil {
		return err
	}
	defer in.Close()

	track, err := gpslog.ReadLog(in)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(logFile, filepath.Ext(logFile))
	out, err := os.Create(base + ".gpx")
	if err != nil {
		return err
	}
	defer out.Close()

	if err := gpslog.WriteGPX(out, filepath.Base(base), track); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"file":   base + ".gpx",
		"points": len(track),
	}).Info("Wrote GPX track")
	return nil
}
