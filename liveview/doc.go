// Package liveview runs the two halves of a camera liveview session:
// the UDP receive loop that reassembles JPEG frames, and the periodic
// consumer that rotates and displays them.
//
// The receiver owns the UDP socket and all assembler state and runs in
// its own goroutine; the consumer runs on a periodic scheduler tick.
// The only object shared between them is the frame queue. Shutdown is
// cooperative: Stop sets a flag that the receive loop observes at its
// next 1-second read timeout, and Wait blocks until the socket is
// closed. Callers stop the camera's broadcast only after Wait returns,
// so packets sent after socket closure are dropped by the OS rather
// than by us.
package liveview
