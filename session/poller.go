package session

import "time"

// Poller drives a callback on a fixed cadence: once immediately on Start,
// then once per interval. It belongs to a single owner goroutine; Start and
// Stop must not be called concurrently with each other.
type Poller struct {
	interval time.Duration
	fn       func()
	stop     chan struct{}
}

// NewPoller returns a stopped poller
func NewPoller(interval time.Duration, fn func()) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{interval: interval, fn: fn}
}

// Start begins a fresh schedule, replacing any running one
func (p *Poller) Start() {
	p.Stop()
	stop := make(chan struct{})
	p.stop = stop
	go p.run(stop)
}

// Stop halts the schedule. Stopping a stopped poller is a no-op.
func (p *Poller) Stop() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	p.stop = nil
}

// Running reports whether a schedule is active
func (p *Poller) Running() bool {
	return p.stop != nil
}

func (p *Poller) run(stop chan struct{}) {
	p.fn()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			p.fn()
		}
	}
}
