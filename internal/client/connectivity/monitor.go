package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mkravets/fieldops/internal/logging"
)

// Quality is a coarse estimate of the link derived from probe round-trip time.
type Quality string

const (
	QualityUnknown  Quality = "unknown"
	QualityGood     Quality = "good"
	QualityDegraded Quality = "degraded"
)

// Change describes one observed connectivity transition.
type Change struct {
	Connected bool
	Quality   Quality
}

// Monitor reports whether the backend is reachable. IsConnected never blocks.
type Monitor interface {
	IsConnected() bool
	Subscribe() (<-chan Change, func())
}

// Prober is the probe the Pinger runs against the backend.
type Prober interface {
	Ping(ctx context.Context) error
}

const (
	probeTimeout = 3 * time.Second
	degradedRTT  = 750 * time.Millisecond

	// offlineAfter failed probes in a row before the monitor reports a
	// disconnect, so a single dropped probe does not flap the state.
	offlineAfter = 2
)

// Pinger implements Monitor by probing the backend on a fixed interval.
type Pinger struct {
	prober   Prober
	interval time.Duration
	logger   logging.Logger

	connected atomic.Bool

	mu       sync.Mutex
	quality  Quality
	failures int
	nextSub  int
	subs     map[int]chan Change
}

func NewPinger(prober Prober, interval time.Duration, logger logging.Logger) *Pinger {
	return &Pinger{
		prober:   prober,
		interval: interval,
		logger:   logger,
		quality:  QualityUnknown,
		subs:     make(map[int]chan Change),
	}
}

func (p *Pinger) IsConnected() bool {
	return p.connected.Load()
}

// Subscribe returns a channel of transitions and an unsubscribe func.
// Events are dropped rather than blocking the probe loop.
func (p *Pinger) Subscribe() (<-chan Change, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan Change, 4)
	p.subs[id] = ch

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
		}
	}
}

// Run probes until ctx is cancelled. The first probe happens immediately.
func (p *Pinger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.probe(ctx)

	for {
		select {
		case <-ticker.C:
			p.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pinger) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	start := time.Now()
	err := p.prober.Ping(pctx)
	rtt := time.Since(start)
	cancel()

	if err != nil {
		p.observeFailure(ctx)
		return
	}

	q := QualityGood
	if rtt >= degradedRTT {
		q = QualityDegraded
	}
	p.observeSuccess(ctx, q)
}

func (p *Pinger) observeSuccess(ctx context.Context, q Quality) {
	p.mu.Lock()
	p.failures = 0
	wasConnected := p.connected.Load()
	prevQuality := p.quality
	p.quality = q
	p.connected.Store(true)

	if wasConnected && prevQuality == q {
		p.mu.Unlock()
		return
	}
	p.publishLocked(Change{Connected: true, Quality: q})
	p.mu.Unlock()

	if !wasConnected {
		p.logger.Info(ctx, "connectivity restored", "quality", string(q))
	}
}

func (p *Pinger) observeFailure(ctx context.Context) {
	p.mu.Lock()
	p.failures++
	if !p.connected.Load() || p.failures < offlineAfter {
		p.mu.Unlock()
		return
	}
	p.connected.Store(false)
	p.quality = QualityUnknown
	p.publishLocked(Change{Connected: false, Quality: QualityUnknown})
	p.mu.Unlock()

	p.logger.Warn(ctx, "connectivity lost")
}

func (p *Pinger) publishLocked(c Change) {
	for _, ch := range p.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
