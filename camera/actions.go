package camera

import (
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// TakePicture triggers the shutter. Most models use the two-phase
// shutter command; the E-M10 Mark IV only exposes exec_takemotion and
// needs a running liveview for it.
func (c *Client) TakePicture() error {
	logrus.WithFields(logrus.Fields{
		"function": "Client.TakePicture",
		"model":    c.Model(),
	}).Info("Taking picture")

	if strings.EqualFold(c.Model(), "e-m10markiv") {
		if err := c.actionBegin(CamModeRecord, false); err != nil {
			return err
		}
		defer c.actionEnd()

		if c.status.liveviewActive {
			_, err := c.SendCommand("exec_takemotion", Arg{"com", "starttake"})
			return err
		}

		// This model only takes pictures while a liveview broadcast is
		// running, so start a throwaway one. The execution lock is
		// already held, so the liveview commands are issued inline.
		if _, err := c.SendCommand("exec_takemisc",
			Arg{"com", "startliveview"}, Arg{"port", strconv.Itoa(DefaultLiveviewPort)}); err != nil {
			return err
		}
		c.status.liveviewActive = true
		if _, err := c.SendCommand("exec_takemotion", Arg{"com", "starttake"}); err != nil {
			return err
		}
		if _, err := c.SendCommand("exec_takemisc", Arg{"com", "stopliveview"}); err != nil {
			return err
		}
		c.status.liveviewActive = false
		return nil
	}

	if err := c.actionBegin(CamModeShutter, false); err != nil {
		return err
	}
	defer c.actionEnd()

	time.Sleep(500 * time.Millisecond)
	if _, err := c.SendCommand("exec_shutter", Arg{"com", "1st2ndpush"}); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)
	_, err := c.SendCommand("exec_shutter", Arg{"com", "2nd1strelease"})
	return err
}

// SetClock sets the camera clock to this computer's time.
func (c *Client) SetClock() error {
	if err := c.actionBegin(CamModePlay, false); err != nil {
		return err
	}
	defer c.actionEnd()

	now := time.Now()
	_, err := c.SendCommand("set_utctimediff",
		Arg{"utctime", now.UTC().Format("20060102T150405")},
		Arg{"diff", now.Format("-0700")})
	return err
}

// PowerOff turns the camera off. The client is unusable afterwards.
func (c *Client) PowerOff() error {
	logrus.WithFields(logrus.Fields{
		"function": "Client.PowerOff",
	}).Info("Powering camera off")
	_, err := c.SendCommand("exec_pwoff")
	return err
}
