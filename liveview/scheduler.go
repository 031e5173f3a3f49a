package liveview

import (
	"sync"
	"time"
)

// Scheduler runs a callback on a fixed interval. It abstracts whatever
// periodic mechanism the host environment provides: a ticker here, or
// a UI event-loop timer when the consumer is embedded in a GUI.
type Scheduler interface {
	// Schedule invokes fn every interval until the returned stop
	// function is called. The stop function does not wait for an
	// in-flight invocation to return.
	Schedule(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler schedules callbacks on a time.Ticker in a dedicated
// goroutine. It is the default scheduler for headless consumers.
type TickerScheduler struct{}

// Schedule implements Scheduler.
func (TickerScheduler) Schedule(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	quit := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(quit) })
	}
}
