// Package olympuswifi controls Olympus cameras over their Wi-Fi
// interface and receives their MJPEG-over-RTP liveview stream.
//
// The module is split into small domain packages:
//
//   - [camera]: the vendor HTTP/XML command protocol (connect, modes,
//     properties, shutter, file listing and download)
//   - [rtp]: RTP packet decoding, frame assembly, and orientation
//     extraction for the liveview stream
//   - [frame]: the completed frame type and the bounded hand-off queue
//     between receiver and display
//   - [liveview]: the UDP receive loop and the periodic render consumer
//   - [viewer]: an HTTP MJPEG display surface
//   - [gpslog]: GPS track log to GPX conversion
//
// This root package ties the camera client and the liveview machinery
// together into a session with the shutdown ordering the camera
// requires:
//
//	cam, err := camera.Connect(camera.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := olympuswifi.StartLiveView(cam, camera.DefaultLiveviewPort, camera.DefaultResolution)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Stop()
//
//	f, err := session.Frames().PopTimeout(4 * time.Second)
//	if err != nil {
//	    log.Fatal(err) // stream stalled; check inbound UDP
//	}
//	display(f.JPEG)
package olympuswifi
