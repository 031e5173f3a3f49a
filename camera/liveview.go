package camera

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/sirupsen/logrus"
)

// StartLiveview asks the camera to broadcast its live view as an
// MJPEG-over-RTP stream to the given UDP port. Bind the receiving
// socket before calling this so no packets are lost.
//
// Parameters:
//   - port: UDP port the camera should send RTP packets to
//   - quality: liveview resolution (lvqty), for example "0640x0480";
//     supported values come from LiveviewResolutions
//
// Returns:
//   - []string: the names of the func ids the camera will include in
//     the RTP extension of each frame
//   - error: any command error
func (c *Client) StartLiveview(port int, quality string) ([]string, error) {
	if err := c.actionBegin(CamModePlay, false); err != nil {
		return nil, err
	}

	if err := c.switchCammode(CamModeRecord, false, Arg{"lvqty", quality}); err != nil {
		c.actionEnd()
		return nil, err
	}
	c.status.liveviewQuality = quality
	c.status.liveviewPort = port

	resp, err := c.SendCommand("exec_takemisc",
		Arg{"com", "startliveview"}, Arg{"port", strconv.Itoa(port)})
	if err != nil {
		c.actionEnd()
		return nil, err
	}
	c.status.liveviewActive = true
	c.actionEnd()

	logrus.WithFields(logrus.Fields{
		"function": "Client.StartLiveview",
		"port":     port,
		"quality":  quality,
	}).Info("Liveview broadcast started")

	return parseFuncIDs(resp.Body), nil
}

// StopLiveview stops the camera's RTP broadcast. Close the receiving
// socket first; packets still in flight are then dropped by the OS.
func (c *Client) StopLiveview() error {
	if !c.status.liveviewActive {
		return nil
	}
	if err := c.actionBegin(CamModeRecord, false); err != nil {
		return err
	}
	defer c.actionEnd()

	if _, err := c.SendCommand("exec_takemisc", Arg{"com", "stopliveview"}); err != nil {
		return err
	}
	if err := c.switchCammode(CamModePlay, false); err != nil {
		return err
	}
	c.status.liveviewActive = false
	c.status.liveviewRestart = false

	logrus.WithFields(logrus.Fields{
		"function": "Client.StopLiveview",
	}).Info("Liveview broadcast stopped")
	return nil
}

// parseFuncIDs extracts the extension func id names announced in the
// startliveview answer.
func parseFuncIDs(body []byte) []string {
	if !bytes.HasPrefix(body, []byte("<?xml ")) {
		return nil
	}
	var root xmlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil
	}

	var names []string
	for i := range root.Children {
		child := &root.Children[i]
		if child.XMLName.Local != "funcid" {
			continue
		}
		if name, ok := child.attr("name"); ok {
			names = append(names, name)
		}
	}
	return names
}
