// Package connectivity tracks whether the remote backend is reachable and
// notifies subscribers on transitions. The offline→online edge is the
// canonical trigger for automatic reconciliation.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

// Pinger is the reachability probe, usually the remote client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Observer is the status surface consumed by the sync controller.
type Observer interface {
	Online() bool
	Subscribe(onOnline, onOffline func()) (unsubscribe func())
}

type subscriber struct {
	onOnline  func()
	onOffline func()
}

// Prober polls the backend on an interval and maintains the online flag.
// It starts offline; the first successful probe flips it online and fires
// the transition like any other.
type Prober struct {
	pinger   Pinger
	interval time.Duration
	logg     *logger.Logger

	mu     sync.Mutex
	online bool
	subs   map[int]subscriber
	nextID int

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewProber(pinger Pinger, interval time.Duration, logg *logger.Logger) *Prober {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Prober{
		pinger:   pinger,
		interval: interval,
		logg:     logg,
		subs:     map[int]subscriber{},
		stopped:  make(chan struct{}),
	}
}

// Start probes once immediately, then keeps probing until Stop or ctx done.
func (p *Prober) Start(ctx context.Context) {
	p.CheckNow(ctx)
	go p.loop(ctx)
}

func (p *Prober) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.CheckNow(ctx)
		case <-ctx.Done():
			return
		case <-p.stopped:
			return
		}
	}
}

// Stop terminates the probe loop. Safe to call more than once.
func (p *Prober) Stop() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

// Online returns the latest probe result.
func (p *Prober) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Subscribe registers transition handlers and returns an unsubscribe func.
// Either handler may be nil.
func (p *Prober) Subscribe(onOnline, onOffline func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = subscriber{onOnline: onOnline, onOffline: onOffline}
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// CheckNow probes immediately and fires transition handlers on a state
// change. Handlers run outside the lock so they may re-enter the observer.
func (p *Prober) CheckNow(ctx context.Context) {
	nowOnline := p.pinger.Ping(ctx) == nil

	p.mu.Lock()
	changed := nowOnline != p.online
	p.online = nowOnline
	var notify []subscriber
	if changed {
		notify = make([]subscriber, 0, len(p.subs))
		for _, sub := range p.subs {
			notify = append(notify, sub)
		}
	}
	p.mu.Unlock()

	if !changed {
		return
	}

	if p.logg != nil {
		lctx := p.logg.WithField(ctx, "online", nowOnline)
		p.logg.Info(lctx, "connectivity changed")
	}
	for _, sub := range notify {
		if nowOnline && sub.onOnline != nil {
			sub.onOnline()
		}
		if !nowOnline && sub.onOffline != nil {
			sub.onOffline()
		}
	}
}
