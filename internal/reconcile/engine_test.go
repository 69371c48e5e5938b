package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	"github.com/cinalli-racing/lubricentro-backend/internal/syncstate"
	"github.com/cinalli-racing/lubricentro-backend/pkg/localstore"
)

type fakeRemote struct {
	mu              sync.Mutex
	products        []catalog.Product
	fetchErr        error
	fetchCalls      int
	fetchGate       chan struct{} // when set, FetchAllProducts blocks until closed
	failSaleNumbers map[string]bool
	orderErr        error
	submittedSales  []catalog.Sale
	submittedOrders []catalog.PurchaseOrder
}

func (f *fakeRemote) FetchAllProducts(context.Context) ([]catalog.Product, error) {
	f.mu.Lock()
	f.fetchCalls++
	gate := f.fetchGate
	err := f.fetchErr
	products := append([]catalog.Product(nil), f.products...)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (f *fakeRemote) SubmitSale(_ context.Context, sale catalog.Sale) (catalog.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaleNumbers[sale.SaleNumber] {
		return catalog.Sale{}, errors.New("backend rejected sale")
	}
	f.submittedSales = append(f.submittedSales, sale)
	ack := sale
	ack.ID = "srv-" + sale.SaleNumber
	return ack, nil
}

func (f *fakeRemote) SubmitPurchaseOrder(_ context.Context, order catalog.PurchaseOrder) (catalog.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return catalog.PurchaseOrder{}, f.orderErr
	}
	f.submittedOrders = append(f.submittedOrders, order)
	return order, nil
}

type staticOnline bool

func (s staticOnline) Online() bool { return bool(s) }

// spyRepo counts cache writes on top of the real repository.
type spyRepo struct {
	*syncstate.Repository
	cacheWrites int
	markCalls   int
}

func (s *spyRepo) WriteCachedProducts(products []catalog.Product) {
	s.cacheWrites++
	s.Repository.WriteCachedProducts(products)
}

func (s *spyRepo) MarkSyncedNow() {
	s.markCalls++
	s.Repository.MarkSyncedNow()
}

func newEngineFixture(t *testing.T, remote *fakeRemote, online bool) (*Engine, *spyRepo) {
	t.Helper()
	repo := &spyRepo{Repository: syncstate.NewRepository(localstore.NewMemory(), nil)}
	return NewEngine(repo, remote, staticOnline(online), nil, nil), repo
}

func TestSyncOfflineIsNoOp(t *testing.T) {
	remote := &fakeRemote{}
	engine, repo := newEngineFixture(t, remote, false)
	repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 1})

	res := engine.Sync(context.Background())

	if res.Performed {
		t.Fatal("offline sync must report not performed")
	}
	if remote.fetchCalls != 0 {
		t.Fatalf("offline sync must not touch the remote, got %d calls", remote.fetchCalls)
	}
	if got := repo.PendingSales(); len(got) != 1 {
		t.Fatalf("pending queue must be untouched, got %v", got)
	}
}

func TestSyncPullRefreshesCacheOnlyOnChange(t *testing.T) {
	remote := &fakeRemote{products: []catalog.Product{{ID: "p1", Barcode: "779", Stock: 10}}}
	engine, repo := newEngineFixture(t, remote, true)

	first := engine.Sync(context.Background())
	if !first.Performed || !first.PullSucceeded || !first.ProductsRefreshed {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second := engine.Sync(context.Background())
	if !second.PullSucceeded || second.ProductsRefreshed {
		t.Fatalf("second pull with unchanged remote must skip the write: %+v", second)
	}

	if repo.cacheWrites != 1 {
		t.Fatalf("expected exactly one cache write, got %d", repo.cacheWrites)
	}
	if repo.markCalls != 2 {
		t.Fatalf("last sync must advance on both pulls, got %d marks", repo.markCalls)
	}
	if second.LastSync == nil {
		t.Fatal("expected last sync timestamp in result")
	}
}

func TestSyncMutualExclusion(t *testing.T) {
	gate := make(chan struct{})
	remote := &fakeRemote{fetchGate: gate}
	engine, repo := newEngineFixture(t, remote, true)
	repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 1})

	done := make(chan Result, 1)
	go func() { done <- engine.Sync(context.Background()) }()

	// Wait for the first pass to reach the blocked pull.
	for remoteCalls(remote) == 0 {
		time.Sleep(time.Millisecond)
	}

	overlapping := engine.Sync(context.Background())
	if overlapping.Performed {
		t.Fatal("overlapping sync must report not performed")
	}
	if got := repo.PendingSales(); len(got) != 1 {
		t.Fatalf("overlapping sync must leave pending counts unchanged, got %v", got)
	}

	close(gate)
	first := <-done
	if !first.Performed {
		t.Fatalf("first sync should have run: %+v", first)
	}
	if engine.Syncing() {
		t.Fatal("in-flight flag must clear after completion")
	}
}

func remoteCalls(f *fakeRemote) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func TestSyncFailedPullStillPushes(t *testing.T) {
	remote := &fakeRemote{fetchErr: errors.New("pull down")}
	engine, repo := newEngineFixture(t, remote, true)
	repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 2})

	res := engine.Sync(context.Background())

	if res.PullSucceeded {
		t.Fatal("pull should have failed")
	}
	if res.SalesPushed != 1 {
		t.Fatalf("push must run despite failed pull: %+v", res)
	}
	if repo.LastSyncTime() != nil {
		t.Fatal("last sync must not advance when the pull failed")
	}
	if got := repo.PendingSales(); len(got) != 0 {
		t.Fatalf("acked sale must leave the queue, got %v", got)
	}
}

func TestSyncRetainsUnacknowledgedRecords(t *testing.T) {
	remote := &fakeRemote{failSaleNumbers: map[string]bool{"S-2": true}}
	engine, repo := newEngineFixture(t, remote, true)
	repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 1})
	repo.AppendPendingSale(catalog.Sale{ProductID: "p2", SaleNumber: "S-2", Quantity: 2})

	res := engine.Sync(context.Background())

	if res.SalesPushed != 1 || res.SalesFailed != 1 {
		t.Fatalf("expected one ack and one failure: %+v", res)
	}
	pending := repo.PendingSales()
	if len(pending) != 1 || pending[0].SaleNumber != "S-2" {
		t.Fatalf("rejected sale must stay queued, got %v", pending)
	}
	if res.Succeeded() {
		t.Fatal("partial push must not count as success")
	}
	if res.PendingItems != 1 {
		t.Fatalf("expected 1 pending item, got %d", res.PendingItems)
	}
}

func TestSyncPushesPurchaseOrdersIndependently(t *testing.T) {
	remote := &fakeRemote{orderErr: errors.New("orders endpoint down")}
	engine, repo := newEngineFixture(t, remote, true)
	repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 1})
	repo.AppendPendingPurchaseOrder(catalog.PurchaseOrder{ProductID: "p1", Quantity: 5})

	res := engine.Sync(context.Background())

	if res.SalesPushed != 1 {
		t.Fatalf("sale push must succeed independently: %+v", res)
	}
	if res.OrdersFailed != 1 {
		t.Fatalf("expected failed order push: %+v", res)
	}
	if got := repo.PendingPurchaseOrders(); len(got) != 1 {
		t.Fatalf("failed order must stay queued, got %v", got)
	}
}

func TestSyncNeverReturnsBeforeClearingFlag(t *testing.T) {
	remote := &fakeRemote{fetchErr: errors.New("down")}
	engine, _ := newEngineFixture(t, remote, true)

	engine.Sync(context.Background())
	if engine.Syncing() {
		t.Fatal("flag must clear after a failed pass")
	}
	// The next pass must run again.
	if res := engine.Sync(context.Background()); !res.Performed {
		t.Fatalf("subsequent pass must be performed: %+v", res)
	}
}
