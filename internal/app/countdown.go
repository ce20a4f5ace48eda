package app

import (
	"sync"
	"time"
)

// countdown calls tick once per interval on its own goroutine until stopped.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func startCountdown(interval time.Duration, tick func()) *countdown {
	c := &countdown{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick()
			case <-c.stop:
				return
			}
		}
	}()
	return c
}

// Stop is safe to call more than once and from inside tick.
func (c *countdown) Stop() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}
