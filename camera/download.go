package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DownloadPhotos downloads every image from the camera's memory card
// into outputDir, skipping files that already exist locally with the
// same size and timestamp. Downloaded files get the camera's timestamp
// as their modification time.
//
// Parameters:
//   - client: a connected camera client
//   - outputDir: destination directory, created if missing
//   - start, end: optional date range filter; pass zero times to
//     download everything
//
// Returns:
//   - error: the first listing, download, or filesystem error
func DownloadPhotos(client *Client, outputDir string, start, end time.Time) error {
	images, err := client.ListImages("")
	if err != nil {
		return err
	}

	for _, img := range images {
		if !start.IsZero() && !end.IsZero() {
			if img.DateTime.Before(start) || img.DateTime.After(end) {
				continue
			}
		}

		local := filepath.Join(outputDir, img.Name[strings.LastIndex(img.Name, "/")+1:])
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory '%s': %w", outputDir, err)
		}

		if skip, reason := skipExisting(local, img); skip {
			logrus.WithFields(logrus.Fields{
				"function": "DownloadPhotos",
				"file":     local,
				"reason":   reason,
			}).Info("Skipping download")
			continue
		}

		data, err := client.DownloadImage(img.Name)
		if err != nil {
			return err
		}
		if int64(len(data)) != img.Size {
			return fmt.Errorf("download of '%s' returned %d bytes, camera reported %d",
				img.Name, len(data), img.Size)
		}

		if err := os.WriteFile(local, data, 0o644); err != nil {
			return fmt.Errorf("cannot write '%s': %w", local, err)
		}
		if err := os.Chtimes(local, img.DateTime, img.DateTime); err != nil {
			return fmt.Errorf("cannot set time of '%s': %w", local, err)
		}

		logrus.WithFields(logrus.Fields{
			"function": "DownloadPhotos",
			"file":     local,
			"size":     img.Size,
		}).Info("Downloaded image")
	}
	return nil
}

// skipExisting reports whether a local file makes the download
// unnecessary. Any existing file is skipped; the reason distinguishes
// an identical file from a size or timestamp mismatch.
func skipExisting(local string, img FileDescr) (bool, string) {
	stat, err := os.Stat(local)
	if err != nil {
		return false, ""
	}
	if stat.Size() != img.Size {
		return true, "exists with different size"
	}
	if d := stat.ModTime().Sub(img.DateTime); d < -10*time.Second || d > 10*time.Second {
		return true, "exists with different modification time"
	}
	return true, "already downloaded"
}
