package camera

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// FileDescr describes one image file on the camera's memory card.
type FileDescr struct {
	// Name is the full path on the card, e.g. "/DCIM/100OLYMP/P1010042.JPG".
	Name string
	// Size in bytes.
	Size int64
	// DateTime is the file's timestamp. The camera records no
	// timezone; the local one is assumed.
	DateTime time.Time
}

// File attribute bits in the get_imglist answer (FAT semantics).
const (
	attrHidden    = 2
	attrSystem    = 4
	attrVolume    = 8
	attrDirectory = 16
)

// ListImages lists the image files in a directory on the camera's
// memory card and all its subdirectories.
//
// Parameters:
//   - dir: card directory; "" lists the whole card ("/DCIM")
//
// Returns:
//   - []FileDescr: the files found; empty for an empty directory (the
//     camera answers 404 for those)
//   - error: any command error
func (c *Client) ListImages(dir string) ([]FileDescr, error) {
	if dir == "" {
		dir = "/DCIM"
	}

	resp, err := c.SendCommand("get_imglist", Arg{"DIR", dir})
	if err != nil {
		var resultErr *ResultError
		if errors.As(err, &resultErr) && resultErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var images []FileDescr
	for _, line := range strings.Split(string(resp.Body), "\r\n") {
		components := strings.Split(line, ",")
		if len(components) != 6 {
			continue
		}

		path := components[0] + "/" + components[1]
		nums := make([]int, 4)
		ok := true
		for i, s := range components[2:] {
			if nums[i], err = strconv.Atoi(s); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		size, attrib, fatDate, fatTime := nums[0], nums[1], nums[2], nums[3]

		if attrib&(attrHidden|attrSystem|attrVolume) != 0 {
			logrus.WithFields(logrus.Fields{
				"function": "Client.ListImages",
				"path":     path,
				"attrib":   attrib,
			}).Debug("Ignoring special file")
			continue
		}

		if attrib&attrDirectory != 0 {
			sub, err := c.ListImages(path)
			if err != nil {
				return nil, err
			}
			images = append(images, sub...)
			continue
		}

		images = append(images, FileDescr{
			Name:     path,
			Size:     int64(size),
			DateTime: decodeFATTime(fatDate, fatTime),
		})
	}
	return images, nil
}

// decodeFATTime converts the FAT-packed date and time of the imglist
// answer: date is years-since-1980/month/day in 7/4/5 bits, time is
// hour/minute/two-seconds in 5/6/5 bits.
func decodeFATTime(date, tim int) time.Time {
	return time.Date(
		1980+(date>>9), time.Month((date>>5)&15), date&31,
		tim>>11, (tim>>5)&63, 2*(tim&31), 0, time.Local)
}

// DownloadImage downloads a full-size image from the camera.
//
// Parameters:
//   - path: card path from FileDescr.Name
//
// Returns:
//   - []byte: the image file contents
//   - error: any HTTP error
func (c *Client) DownloadImage(path string) ([]byte, error) {
	reqURL := c.baseURL + strings.TrimPrefix(path, "/")

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Host = c.host
	req.Header.Set("User-Agent", userAgent)

	httpClient := &http.Client{Timeout: downloadTimeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ResultError{StatusCode: resp.StatusCode, URL: reqURL,
			Message: "image download failed"}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return body, nil
}

// DownloadThumbnail downloads the thumbnail of an image.
func (c *Client) DownloadThumbnail(path string) ([]byte, error) {
	resp, err := c.SendCommand("get_thumbnail", Arg{"DIR", path})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
