package syncstate

import (
	"strings"
	"testing"
	"time"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	"github.com/cinalli-racing/lubricentro-backend/pkg/localstore"
)

func newTestRepo(t *testing.T) (*Repository, *localstore.MemoryStore) {
	t.Helper()
	store := localstore.NewMemory()
	return NewRepository(store, nil), store
}

func TestCachedProductsEmptyWhenAbsent(t *testing.T) {
	repo, _ := newTestRepo(t)
	if got := repo.CachedProducts(); len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestCachedProductsCorruptPayloadTreatedAsEmpty(t *testing.T) {
	repo, store := newTestRepo(t)
	if err := store.Set("products.cache", "{not json"); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if got := repo.CachedProducts(); len(got) != 0 {
		t.Fatalf("expected empty slice for corrupt payload, got %v", got)
	}
}

func TestWriteCachedProductsStampsTimestamp(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.WriteCachedProducts([]catalog.Product{{ID: "p1", Barcode: "779", Stock: 4}})

	got := repo.CachedProducts()
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("unexpected cache contents: %v", got)
	}
	if repo.CacheWrittenAt() == nil {
		t.Fatal("expected cache timestamp after write")
	}
}

func TestAppendPendingSaleAssignsTempID(t *testing.T) {
	repo, _ := newTestRepo(t)

	stored := repo.AppendPendingSale(catalog.Sale{
		ProductID:  "p1",
		SaleNumber: "S-1",
		Quantity:   2,
	})

	if !catalog.HasTempID(stored.ID) {
		t.Fatalf("expected temp id prefix, got %q", stored.ID)
	}
	if stored.CreatedAt == "" || stored.UpdatedAt == "" {
		t.Fatalf("expected timestamps stamped, got %+v", stored)
	}

	pending := repo.PendingSales()
	if len(pending) != 1 || pending[0].Quantity != 2 {
		t.Fatalf("unexpected pending queue: %v", pending)
	}
}

func TestAppendPendingSaleKeepsSuppliedID(t *testing.T) {
	repo, _ := newTestRepo(t)
	stored := repo.AppendPendingSale(catalog.Sale{ID: "sale-42", ProductID: "p1", Quantity: 1})
	if stored.ID != "sale-42" {
		t.Fatalf("expected supplied id preserved, got %q", stored.ID)
	}
}

func TestRemovePendingSaleLeavesOthers(t *testing.T) {
	repo, _ := newTestRepo(t)
	first := repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 1})
	second := repo.AppendPendingSale(catalog.Sale{ProductID: "p2", SaleNumber: "S-2", Quantity: 3})

	repo.RemovePendingSale(first.ID)

	pending := repo.PendingSales()
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("expected only second sale left, got %v", pending)
	}

	repo.ClearPendingSales()
	if got := repo.PendingSales(); len(got) != 0 {
		t.Fatalf("expected empty queue after clear, got %v", got)
	}
}

func TestPurchaseOrderQueueDefaultsStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	stored := repo.AppendPendingPurchaseOrder(catalog.PurchaseOrder{
		ProductID: "p1",
		Quantity:  10,
		UnitCost:  2.5,
		Total:     25,
		Supplier:  "YPF",
	})

	if stored.Status != catalog.OrderStatusPending {
		t.Fatalf("expected pending status default, got %q", stored.Status)
	}
	if !catalog.HasTempID(stored.ID) {
		t.Fatalf("expected temp id, got %q", stored.ID)
	}

	repo.RemovePendingPurchaseOrder(stored.ID)
	if got := repo.PendingPurchaseOrders(); len(got) != 0 {
		t.Fatalf("expected empty order queue, got %v", got)
	}
}

func TestUpdateCachedProductStock(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.WriteCachedProducts([]catalog.Product{
		{ID: "p1", Barcode: "779", Stock: 10},
		{ID: "p2", Barcode: "780", Stock: 5},
	})

	repo.UpdateCachedProductStock("p1", 8)

	got := repo.CachedProducts()
	if got[0].Stock != 8 || got[1].Stock != 5 {
		t.Fatalf("unexpected stocks after update: %v", got)
	}
	if got[0].UpdatedAt == "" {
		t.Fatal("expected updated_at stamped on stock change")
	}
}

func TestLastSyncTimeRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	if repo.LastSyncTime() != nil {
		t.Fatal("expected nil before first sync")
	}
	repo.MarkSyncedNow()
	got := repo.LastSyncTime()
	if got == nil || time.Since(*got) > time.Minute {
		t.Fatalf("unexpected last sync time %v", got)
	}
}

func TestStatsCountsDerived(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.WriteCachedProducts([]catalog.Product{{ID: "p1", Barcode: "779"}})
	repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 1})
	repo.AppendPendingPurchaseOrder(catalog.PurchaseOrder{ProductID: "p1", Quantity: 2})

	stats := repo.Stats()
	if stats.PendingSales != 1 || stats.PendingPurchaseOrders != 1 || stats.CachedProducts != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.PendingItems() != 2 {
		t.Fatalf("expected 2 pending items, got %d", stats.PendingItems())
	}
}

func TestValidateFlagsNegativeStock(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.WriteCachedProducts([]catalog.Product{{ID: "p9", Barcode: "111", Stock: -1}})

	report := repo.Validate()
	if report.IsValid {
		t.Fatal("expected invalid report")
	}
	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "p9") && strings.Contains(e, "negative stock") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected error naming product p9, got %v", report.Errors)
	}
}

func TestValidateEmptyCacheIsWarningNotError(t *testing.T) {
	repo, _ := newTestRepo(t)
	report := repo.Validate()
	if !report.IsValid {
		t.Fatalf("empty cache must stay valid, errors=%v", report.Errors)
	}
	if len(report.Warnings) == 0 {
		t.Fatal("expected warning for empty cache")
	}
}

func TestValidateStaleCacheWarns(t *testing.T) {
	repo, store := newTestRepo(t)
	repo.WriteCachedProducts([]catalog.Product{{ID: "p1", Barcode: "779"}})
	old := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	if err := store.Set("products.cache.timestamp", old); err != nil {
		t.Fatalf("seed timestamp: %v", err)
	}

	report := repo.Validate()
	if !report.IsValid {
		t.Fatalf("staleness must not invalidate, errors=%v", report.Errors)
	}
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "hours old") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected staleness warning, got %v", report.Warnings)
	}
}

func TestValidatePendingSaleSanity(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.AppendPendingSale(catalog.Sale{ProductID: "", SaleNumber: "", Quantity: 0})

	report := repo.Validate()
	if report.IsValid {
		t.Fatal("expected invalid report")
	}
	if len(report.Errors) != 3 {
		t.Fatalf("expected product_id, quantity and sale_number errors, got %v", report.Errors)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.WriteCachedProducts([]catalog.Product{{ID: "p1", Barcode: "779", Stock: 3}})
	repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 1})

	backup := repo.Export()
	if len(backup.Products) != 1 || len(backup.PendingSales) != 1 {
		t.Fatalf("unexpected backup: %+v", backup)
	}

	fresh, _ := newTestRepo(t)
	report := fresh.Import(backup)
	if report.Products != 1 || report.PendingSales != 1 {
		t.Fatalf("unexpected import report: %+v", report)
	}
	if got := fresh.CachedProducts(); len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("expected imported products, got %v", got)
	}
}

func TestSettingsDefaultAutoSyncOn(t *testing.T) {
	repo, _ := newTestRepo(t)
	if !repo.Settings().AutoSync {
		t.Fatal("expected auto-sync default on")
	}
	repo.WriteSettings(catalog.SyncSettings{AutoSync: false})
	if repo.Settings().AutoSync {
		t.Fatal("expected auto-sync persisted off")
	}
}

func TestNeedsSync(t *testing.T) {
	repo, store := newTestRepo(t)
	if !repo.NeedsSync() {
		t.Fatal("never-synced repo must need sync")
	}

	repo.MarkSyncedNow()
	if repo.NeedsSync() {
		t.Fatal("fresh sync with empty queues should not need sync")
	}

	repo.AppendPendingSale(catalog.Sale{ProductID: "p1", SaleNumber: "S-1", Quantity: 1})
	if !repo.NeedsSync() {
		t.Fatal("pending sale must force sync")
	}
	repo.ClearPendingSales()

	stale := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	if err := store.Set("sync.lastTimestamp", stale); err != nil {
		t.Fatalf("seed last sync: %v", err)
	}
	if !repo.NeedsSync() {
		t.Fatal("stale last sync must need sync")
	}
}
