// Command olympus-liveview shows the camera's live view in a browser.
//
// It connects to the camera, starts the RTP broadcast, and serves the
// reassembled stream at http://localhost:8080/ as multipart MJPEG.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/olympuswifi"
	"github.com/opd-ai/olympuswifi/camera"
	"github.com/opd-ai/olympuswifi/liveview"
	"github.com/opd-ai/olympuswifi/viewer"
)

func main() {
	var (
		cameraURL = flag.String("camera", camera.DefaultBaseURL, "camera base URL")
		port      = flag.Int("port", camera.DefaultLiveviewPort, "UDP port for the RTP stream")
		quality   = flag.String("lvqty", camera.DefaultResolution, "liveview resolution")
		listen    = flag.String("listen", ":8080", "HTTP listen address for the viewer")
		interval  = flag.Duration("interval", liveview.DefaultUpdateInterval, "display update interval")
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
	logrus.WithFields(logrus.Fields{
		"model":    cam.Model(),
		"versions": cam.Versions(),
	}).Info("Connected")

	session, err := olympuswifi.StartLiveView(cam, *port, *quality)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start liveview")
	}

	display := viewer.New(cam.Model())
	consumer := liveview.NewConsumer(session.Frames(), display)
	consumer.Start(liveview.TickerScheduler{}, *interval)

	server := &http.Server{Addr: *listen, Handler: display.Handler()}
	go func() {
		logrus.WithField("listen", *listen).Info("Viewer listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Viewer HTTP server failed")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logrus.Info("Shutting down")
	consumer.Stop()
	if err := session.Stop(); err != nil {
		logrus.WithError(err).Warn("Failed to stop liveview cleanly")
	}
	_ = server.Close()
}
