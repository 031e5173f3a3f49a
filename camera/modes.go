package camera

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CamMode is a camera operating mode.
type CamMode string

const (
	CamModeUnknown CamMode = ""
	CamModeRecord  CamMode = "rec"
	CamModePlay    CamMode = "play"
	CamModeShutter CamMode = "shutter"
)

// camStatus tracks the camera-side state the client has to juggle:
// the current mode and whether a liveview broadcast is running and
// must be restored after an interrupting command.
type camStatus struct {
	mode            CamMode
	liveviewActive  bool
	liveviewRestart bool
	liveviewQuality string
	liveviewPort    int
}

// switchCammode switches the camera to mode unless it is already
// there. Any mode switch stops a running liveview broadcast on the
// camera side, so the active flag is cleared.
func (c *Client) switchCammode(mode CamMode, force bool, args ...Arg) error {
	if (c.status.mode == mode && !force) || mode == CamModeUnknown {
		return nil
	}

	cmdArgs := append([]Arg{{"mode", string(mode)}}, args...)
	if _, err := c.SendCommand("switch_cammode", cmdArgs...); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Client.switchCammode",
		"mode":     string(mode),
	}).Debug("Switched camera mode")

	c.status.mode = mode
	c.status.liveviewActive = false
	return nil
}

// actionBegin takes the execution lock and switches the camera to the
// mode an operation needs, remembering whether a liveview broadcast
// has to be restarted afterwards. Every successful actionBegin must be
// paired with actionEnd.
func (c *Client) actionBegin(mode CamMode, force bool, args ...Arg) error {
	select {
	case c.exec <- struct{}{}:
	case <-time.After(execLockTimeout):
		return &RequestError{Message: "timed out waiting for exclusive camera access"}
	}

	c.status.liveviewRestart = c.status.liveviewActive
	if err := c.switchCammode(mode, force, args...); err != nil {
		<-c.exec
		return err
	}
	return nil
}

// actionEnd releases the execution lock and restarts the liveview
// broadcast if the finished operation interrupted one.
func (c *Client) actionEnd() {
	restart := c.status.liveviewRestart && !c.status.liveviewActive
	port, quality := c.status.liveviewPort, c.status.liveviewQuality
	<-c.exec

	if restart {
		if _, err := c.StartLiveview(port, quality); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Client.actionEnd",
				"error":    err.Error(),
			}).Warn("Failed to restart liveview")
		}
	}
}
