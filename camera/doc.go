// Package camera speaks the Olympus Wi-Fi camera's HTTP/XML command
// protocol.
//
// The camera exposes a small CGI interface on its own access point
// (http://192.168.0.10/). The set of supported commands varies between
// camera models, so a Client starts by downloading the camera's command
// descriptor list and validates every later command and argument
// against that tree before sending it.
//
// Besides raw command access the Client covers the operations the
// liveview application needs:
//
//   - switching camera modes (rec/play/shutter) with automatic
//     restoration of a running liveview
//   - reading and writing camera properties
//   - starting and stopping the RTP liveview broadcast
//   - taking pictures, setting the clock, powering off
//   - listing and downloading images from the memory card
//
// The client requires the computer to be connected to the camera's
// Wi-Fi network.
package camera
