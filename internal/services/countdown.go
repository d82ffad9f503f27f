package services

import (
	"log"
	"sync"
	"time"
)

type timerEventKind int

const (
	timerTick timerEventKind = iota
	timerFired
)

type timerEvent struct {
	Gen       uint64
	Kind      timerEventKind
	Remaining int
}

// Countdown is a cancellable countdown handle. It emits one tick per interval
// (remaining seconds, counting down) and exactly one fired event if it runs
// to completion uncancelled. Once Cancel returns, no further event for this
// handle is delivered; the generation number lets the owner discard anything
// that was already queued.
type Countdown struct {
	gen      uint64
	seconds  int
	interval time.Duration

	tickCh chan<- timerEvent
	fireCh chan<- timerEvent

	mu        sync.Mutex
	cancelled bool
	stop      chan struct{}
}

func startCountdown(gen uint64, seconds int, interval time.Duration, tickCh, fireCh chan<- timerEvent) *Countdown {
	c := &Countdown{
		gen:      gen,
		seconds:  seconds,
		interval: interval,
		tickCh:   tickCh,
		fireCh:   fireCh,
		stop:     make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for remaining := c.seconds; remaining > 0; remaining-- {
		if !c.deliverTick(remaining) {
			return
		}
		select {
		case <-ticker.C:
		case <-c.stop:
			return
		}
	}
	c.deliverFire()
}

// deliverTick drops the tick when the owner is busy; ticks are advisory.
func (c *Countdown) deliverTick(remaining int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return false
	}
	select {
	case c.tickCh <- timerEvent{Gen: c.gen, Kind: timerTick, Remaining: remaining}:
	default:
	}
	return true
}

func (c *Countdown) deliverFire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	select {
	case c.fireCh <- timerEvent{Gen: c.gen, Kind: timerFired}:
	default:
		// Владелец обязан дренировать fireCh перед каждым новым отсчётом,
		// так что сюда попадать не должны
		log.Printf("countdown gen=%d: fire channel full, completion dropped", c.gen)
	}
}

// Cancel stops the countdown. Synchronous: it takes the same lock the
// delivery path holds, so after Cancel returns neither a tick nor the
// completion can be delivered for this handle.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	c.cancelled = true
	close(c.stop)
}
