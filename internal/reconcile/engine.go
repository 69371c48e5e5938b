// Package reconcile implements the offline synchronization pass: pull the
// authoritative catalog, push locally queued mutations, update bookkeeping.
package reconcile

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
	"github.com/cinalli-racing/lubricentro-backend/pkg/metrics"
)

// repository is the slice of syncstate.Repository the engine needs. The
// engine never touches the local store directly.
type repository interface {
	CachedProducts() []catalog.Product
	WriteCachedProducts([]catalog.Product)
	PendingSales() []catalog.Sale
	RemovePendingSale(id string)
	PendingPurchaseOrders() []catalog.PurchaseOrder
	RemovePendingPurchaseOrder(id string)
	MarkSyncedNow()
	Stats() catalog.SyncStats
}

// remoteService is the slice of the remote client the engine consumes.
type remoteService interface {
	FetchAllProducts(ctx context.Context) ([]catalog.Product, error)
	SubmitSale(ctx context.Context, sale catalog.Sale) (catalog.Sale, error)
	SubmitPurchaseOrder(ctx context.Context, order catalog.PurchaseOrder) (catalog.PurchaseOrder, error)
}

type onlineChecker interface {
	Online() bool
}

// Result reports one reconciliation attempt step by step, so callers can
// tell a clean pass from a partial one.
type Result struct {
	Performed         bool       `json:"performed"`
	PullSucceeded     bool       `json:"pull_succeeded"`
	ProductsRefreshed bool       `json:"products_refreshed"`
	SalesPushed       int        `json:"sales_pushed"`
	SalesFailed       int        `json:"sales_failed"`
	OrdersPushed      int        `json:"orders_pushed"`
	OrdersFailed      int        `json:"orders_failed"`
	PendingItems      int        `json:"pending_items"`
	LastSync          *time.Time `json:"last_sync,omitempty"`
}

// Succeeded reports a fully clean pass: pull ok and nothing left behind.
func (r Result) Succeeded() bool {
	return r.Performed && r.PullSucceeded && r.SalesFailed == 0 && r.OrdersFailed == 0
}

// Engine orchestrates reconciliation. At most one pass runs at a time; the
// inFlight flag is taken before the first remote call and released on every
// exit path.
type Engine struct {
	repo    repository
	remote  remoteService
	online  onlineChecker
	logg    *logger.Logger
	metrics *metrics.SyncMetrics

	inFlight atomic.Bool
}

func NewEngine(repo repository, remote remoteService, online onlineChecker, logg *logger.Logger, m *metrics.SyncMetrics) *Engine {
	return &Engine{
		repo:    repo,
		remote:  remote,
		online:  online,
		logg:    logg,
		metrics: m,
	}
}

// Syncing reports whether a pass is currently in flight.
func (e *Engine) Syncing() bool {
	return e.inFlight.Load()
}

// Sync runs one reconciliation pass: pull → push sales → push orders →
// mark success. Steps are independently fault tolerant; a failed pull does
// not block pushes. Offline or overlapping invocations return
// Performed=false without side effects. Sync never panics or returns an
// error; everything lands in the Result and the log.
func (e *Engine) Sync(ctx context.Context) Result {
	if !e.online.Online() {
		if e.logg != nil {
			e.logg.Debug(ctx, "sync skipped, offline")
		}
		return Result{}
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		if e.logg != nil {
			e.logg.Debug(ctx, "sync skipped, already running")
		}
		return Result{}
	}
	defer e.inFlight.Store(false)

	start := time.Now()
	res := Result{Performed: true}

	e.pullProducts(ctx, &res)
	e.pushSales(ctx, &res)
	e.pushOrders(ctx, &res)

	if res.PullSucceeded {
		e.repo.MarkSyncedNow()
	}

	stats := e.repo.Stats()
	res.PendingItems = stats.PendingItems()
	res.LastSync = stats.LastSyncAt

	e.metrics.SetPendingItems(res.PendingItems)
	e.metrics.ObserveRun(outcomeLabel(res), time.Since(start))

	if e.logg != nil {
		lctx := e.logg.WithFields(ctx, map[string]any{
			"pull_ok":       res.PullSucceeded,
			"sales_pushed":  res.SalesPushed,
			"sales_failed":  res.SalesFailed,
			"orders_pushed": res.OrdersPushed,
			"orders_failed": res.OrdersFailed,
			"pending_items": res.PendingItems,
		})
		e.logg.Info(lctx, "sync finished")
	}
	return res
}

// pullProducts fetches the full remote catalog and replaces the local cache
// only when the content actually changed, avoiding timestamp churn.
func (e *Engine) pullProducts(ctx context.Context, res *Result) {
	products, err := e.remote.FetchAllProducts(ctx)
	if err != nil {
		if e.logg != nil {
			e.logg.Error(e.logg.WithSyncStep(ctx, "pull"), "product pull failed", err)
		}
		return
	}
	res.PullSucceeded = true

	cached := e.repo.CachedProducts()
	if !reflect.DeepEqual(cached, products) {
		e.repo.WriteCachedProducts(products)
		res.ProductsRefreshed = true
	}
}

// pushSales delivers queued sales one by one. Each acknowledged record is
// removed individually; failures stay queued for the next pass.
func (e *Engine) pushSales(ctx context.Context, res *Result) {
	for _, sale := range e.repo.PendingSales() {
		if _, err := e.remote.SubmitSale(ctx, sale); err != nil {
			res.SalesFailed++
			if e.logg != nil {
				lctx := e.logg.WithSyncStep(ctx, "push-sales")
				lctx = e.logg.WithField(lctx, "sale_id", sale.ID)
				e.logg.Error(lctx, "sale push failed, kept pending", err)
			}
			continue
		}
		e.repo.RemovePendingSale(sale.ID)
		res.SalesPushed++
	}
}

// pushOrders mirrors pushSales for purchase orders.
func (e *Engine) pushOrders(ctx context.Context, res *Result) {
	for _, order := range e.repo.PendingPurchaseOrders() {
		if _, err := e.remote.SubmitPurchaseOrder(ctx, order); err != nil {
			res.OrdersFailed++
			if e.logg != nil {
				lctx := e.logg.WithSyncStep(ctx, "push-orders")
				lctx = e.logg.WithField(lctx, "order_id", order.ID)
				e.logg.Error(lctx, "purchase order push failed, kept pending", err)
			}
			continue
		}
		e.repo.RemovePendingPurchaseOrder(order.ID)
		res.OrdersPushed++
	}
}

func outcomeLabel(res Result) string {
	switch {
	case res.Succeeded():
		return "success"
	case res.PullSucceeded || res.SalesPushed > 0 || res.OrdersPushed > 0:
		return "partial"
	default:
		return "failure"
	}
}
