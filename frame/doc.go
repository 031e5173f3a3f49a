// Package frame defines the completed liveview frame and the bounded
// queue that hands frames from the receive loop to the render loop.
//
// The queue is the only object shared between the two execution
// contexts of a liveview session. It performs all synchronization
// internally: the producer never blocks (drop-oldest backpressure) and
// the consumer can poll non-blocking or wait with a timeout.
package frame
