// Command olympus-camera is a command-line remote for Olympus Wi-Fi
// cameras: report camera info, download photos, trigger the shutter,
// set the clock, send raw commands, and power off.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi/camera"
)

func main() {
	var (
		cameraURL = flag.String("camera", camera.DefaultBaseURL, "camera base URL")
		info      = flag.Bool("info", false, "report camera model and versions")
		download  = flag.Bool("download", false, "download photos from the camera")
		output    = flag.String("output", defaultOutputDir(), "directory for downloaded photos")
		dateRange = flag.String("date-range", "", "only download photos in range, e.g. 2026-08-01:2026-08-24")
		shoot     = flag.Bool("shoot", false, "take a picture")
		setClock  = flag.Bool("set-clock", false, "set the camera clock to this computer's time")
		powerOff  = flag.Bool("power-off", false, "power the camera off (done last)")
		rawCmd    = flag.String("cmd", "", "raw camera command, e.g. 'get_camprop com=get propname=takemode'")
		verbose   = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cam, err := camera.Connect(camera.Config{BaseURL: *cameraURL})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to camera")
	}

	if *info {
		var versions []string
		for key, value := range cam.Versions() {
			versions = append(versions, key+" "+value)
		}
		fmt.Printf("Connected to Olympus %s, %s.\n", cam.Model(), strings.Join(versions, ", "))
	}

	if *setClock {
		if err := cam.SetClock(); err != nil {
			logrus.WithError(err).Fatal("Failed to set clock")
		}
	}

	if *shoot {
		if err := cam.TakePicture(); err != nil {
			logrus.WithError(err).Fatal("Failed to take picture")
		}
	}

	if *rawCmd != "" {
		if err := runRawCommand(cam, *rawCmd); err != nil {
			logrus.WithError(err).Fatal("Command failed")
		}
	}

	if *download {
		start, end, err := parseDateRange(*dateRange)
		if err != nil {
			logrus.WithError(err).Fatal("Invalid date range")
		}
		if err := camera.DownloadPhotos(cam, *output, start, end); err != nil {
			logrus.WithError(err).Fatal("Download failed")
		}
	}

	if *powerOff {
		if err := cam.PowerOff(); err != nil {
			logrus.WithError(err).Fatal("Failed to power off")
		}
	}
}

// runRawCommand sends one command given as "name key=value key=value".
func runRawCommand(cam *camera.Client, raw string) error {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}

	args := make([]camera.Arg, 0, len(fields)-1)
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("argument '%s' is not of the form key=value", field)
		}
		args = append(args, camera.Arg{Name: key, Value: value})
	}

	resp, err := cam.SendCommand(fields[0], args...)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(string(resp.Body)))
	return nil
}

// parseDateRange parses "start:end" with dates in ISO form.
func parseDateRange(s string) (time.Time, time.Time, error) {
	if s == "" {
		return time.Time{}, time.Time{}, nil
	}
	startStr, endStr, ok := strings.Cut(s, ":")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("range '%s' is not of the form start:end", s)
	}
	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// The end date is inclusive.
	return start, end.Add(24*time.Hour - time.Second), nil
}

// defaultOutputDir mirrors the camera app convention of sorting photos
// into ~/Pictures by year.
func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/Pictures/" + time.Now().Format("2006")
}
