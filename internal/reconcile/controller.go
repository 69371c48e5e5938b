package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	"github.com/cinalli-racing/lubricentro-backend/internal/connectivity"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

// stateReader is the repository slice the controller reads for its snapshot.
type stateReader interface {
	Stats() catalog.SyncStats
	LastSyncTime() *time.Time
	Settings() catalog.SyncSettings
}

// Snapshot is the sync status surface exposed to the UI.
type Snapshot struct {
	Online       bool       `json:"online"`
	Syncing      bool       `json:"syncing"`
	PendingItems int        `json:"pending_items"`
	LastSync     *time.Time `json:"last_sync,omitempty"`
}

// Controller wires the engine to the connectivity observer: it auto-syncs
// once on startup when online and again on every offline→online transition,
// honoring the operator's auto-sync setting. Manual ForceSync bypasses the
// setting.
type Controller struct {
	engine   *Engine
	repo     stateReader
	observer connectivity.Observer
	logg     *logger.Logger

	// startOnce guarantees setup runs exactly once no matter how many
	// times the host calls Start.
	startOnce sync.Once
	syncing   atomic.Bool

	mu          sync.Mutex
	unsubscribe func()
}

func NewController(engine *Engine, repo stateReader, observer connectivity.Observer, logg *logger.Logger) *Controller {
	return &Controller{
		engine:   engine,
		repo:     repo,
		observer: observer,
		logg:     logg,
	}
}

// Start subscribes to connectivity transitions and kicks an initial
// auto-sync when the backend is already reachable. Subsequent calls are
// no-ops.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		unsub := c.observer.Subscribe(
			func() { c.autoSync(context.Background()) },
			nil, // going offline only changes displayed status
		)
		c.mu.Lock()
		c.unsubscribe = unsub
		c.mu.Unlock()

		if c.logg != nil {
			c.logg.Info(ctx, "sync controller started")
		}
		if c.observer.Online() {
			c.autoSync(ctx)
		}
	})
}

// Stop unsubscribes from connectivity events. Safe before Start and when
// called twice.
func (c *Controller) Stop() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// ForceSync runs a reconciliation pass regardless of the auto-sync setting.
func (c *Controller) ForceSync(ctx context.Context) Result {
	return c.runSync(ctx)
}

// Snapshot reads current status fresh from its sources, so direct appends to
// the pending queues show up without a sync pass.
func (c *Controller) Snapshot() Snapshot {
	stats := c.repo.Stats()
	return Snapshot{
		Online:       c.observer.Online(),
		Syncing:      c.syncing.Load(),
		PendingItems: stats.PendingItems(),
		LastSync:     stats.LastSyncAt,
	}
}

func (c *Controller) autoSync(ctx context.Context) {
	if !c.repo.Settings().AutoSync {
		if c.logg != nil {
			c.logg.Debug(ctx, "auto-sync disabled, skipping")
		}
		return
	}
	c.runSync(ctx)
}

func (c *Controller) runSync(ctx context.Context) Result {
	c.syncing.Store(true)
	defer c.syncing.Store(false)
	return c.engine.Sync(ctx)
}
