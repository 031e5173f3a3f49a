package olympuswifi

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi/camera"
	"github.com/opd-ai/olympuswifi/frame"
	"github.com/opd-ai/olympuswifi/liveview"
)

// LiveViewSession is one running liveview: a bound UDP receiver, the
// frame queue it fills, and the camera broadcast feeding it.
type LiveViewSession struct {
	cam      *camera.Client
	receiver *liveview.Receiver
	queue    *frame.Queue
	funcIDs  []string
}

// StartLiveView starts a liveview session. The UDP socket is bound
// before the camera is told to broadcast, so the first frame is not
// lost.
//
// Parameters:
//   - cam: a connected camera client
//   - port: UDP port to receive on; 0 picks a free port
//   - quality: liveview resolution (lvqty)
//
// Returns:
//   - *LiveViewSession: the running session
//   - error: any bind or camera command error
func StartLiveView(cam *camera.Client, port int, quality string) (*LiveViewSession, error) {
	queue := frame.NewQueue()
	receiver, err := liveview.Listen(port, queue)
	if err != nil {
		return nil, err
	}

	funcIDs, err := cam.StartLiveview(receiver.LocalPort(), quality)
	if err != nil {
		receiver.Stop()
		receiver.Wait()
		return nil, fmt.Errorf("failed to start camera broadcast: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "StartLiveView",
		"port":     receiver.LocalPort(),
		"quality":  quality,
		"func_ids": funcIDs,
	}).Info("Liveview session started")

	return &LiveViewSession{
		cam:      cam,
		receiver: receiver,
		queue:    queue,
		funcIDs:  funcIDs,
	}, nil
}

// Frames returns the queue completed frames are delivered on.
func (s *LiveViewSession) Frames() *frame.Queue {
	return s.queue
}

// ExtensionFuncIDs returns the extension field names the camera
// announced when the broadcast started.
func (s *LiveViewSession) ExtensionFuncIDs() []string {
	return s.funcIDs
}

// Stop ends the session: the receiver is stopped and joined first, so
// the socket is guaranteed closed before the camera is told to stop
// broadcasting; packets still in flight afterwards are dropped by the
// OS.
func (s *LiveViewSession) Stop() error {
	s.receiver.Stop()
	s.receiver.Wait()
	return s.cam.StopLiveview()
}
