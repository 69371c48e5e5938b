// Package syncstate owns the reserved key namespace in the local store:
// cached products, pending sales and purchase orders, and sync bookkeeping.
// No other component reads or writes those keys directly.
package syncstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	"github.com/cinalli-racing/lubricentro-backend/pkg/localstore"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

const (
	cacheStaleAfter  = 24 * time.Hour
	syncDueAfter     = time.Hour
	tempIDRandomSize = 8
)

// Repository serializes domain records into the injected key-value store.
// Store failures never propagate: reads degrade to empty collections and
// writes to logged no-ops, so a lost cache at worst means a re-fetch.
type Repository struct {
	mu    sync.Mutex
	store localstore.Store
	logg  *logger.Logger
}

func NewRepository(store localstore.Store, logg *logger.Logger) *Repository {
	return &Repository{store: store, logg: logg}
}

// CachedProducts returns the cached catalog, or an empty slice when the key
// is absent or holds unparsable JSON.
func (r *Repository) CachedProducts() []catalog.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readProducts()
}

// WriteCachedProducts replaces the entire cached set (single key write) and
// stamps the cache timestamp. Replace-all, not merge-by-id.
func (r *Repository) WriteCachedProducts(products []catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeJSON(keyProductsCache, products)
	r.writeString(keyProductsCacheTime, time.Now().UTC().Format(time.RFC3339))
}

// CacheWrittenAt returns when the product cache was last written.
func (r *Repository) CacheWrittenAt() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readTime(keyProductsCacheTime)
}

// UpdateCachedProductStock rewrites one product's stock in the cache, used
// for local write-through after an offline sale. Unknown ids are ignored.
func (r *Repository) UpdateCachedProductStock(productID string, newStock int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := r.readProducts()
	changed := false
	for i := range products {
		if products[i].ID == productID {
			products[i].Stock = newStock
			products[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			changed = true
		}
	}
	if changed {
		r.writeJSON(keyProductsCache, products)
	}
}

// PendingSales returns the queued sales in append order.
func (r *Repository) PendingSales() []catalog.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readSales()
}

// AppendPendingSale queues a sale for the next push. A temp id and creation
// timestamps are assigned when missing. Returns the stored record.
func (r *Repository) AppendPendingSale(sale catalog.Sale) catalog.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if sale.ID == "" {
		sale.ID = newTempID()
	}
	if sale.CreatedAt == "" {
		sale.CreatedAt = now
	}
	sale.UpdatedAt = now

	pending := append(r.readSales(), sale)
	r.writeJSON(keyPendingSales, pending)
	return sale
}

// RemovePendingSale drops one acknowledged sale from the queue.
func (r *Repository) RemovePendingSale(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.readSales()
	filtered := pending[:0]
	for _, s := range pending {
		if s.ID != id {
			filtered = append(filtered, s)
		}
	}
	r.writeJSON(keyPendingSales, filtered)
}

// ClearPendingSales drops the whole queue. Use with care: anything still
// unacknowledged is gone.
func (r *Repository) ClearPendingSales() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(keyPendingSales)
}

// PendingPurchaseOrders returns the queued purchase orders in append order.
func (r *Repository) PendingPurchaseOrders() []catalog.PurchaseOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readOrders()
}

// AppendPendingPurchaseOrder queues a purchase order for the next push.
func (r *Repository) AppendPendingPurchaseOrder(order catalog.PurchaseOrder) catalog.PurchaseOrder {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = newTempID()
	}
	if order.CreatedAt == "" {
		order.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if order.Status == "" {
		order.Status = catalog.OrderStatusPending
	}

	pending := append(r.readOrders(), order)
	r.writeJSON(keyPendingOrders, pending)
	return order
}

// RemovePendingPurchaseOrder drops one acknowledged order from the queue.
func (r *Repository) RemovePendingPurchaseOrder(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.readOrders()
	filtered := pending[:0]
	for _, o := range pending {
		if o.ID != id {
			filtered = append(filtered, o)
		}
	}
	r.writeJSON(keyPendingOrders, filtered)
}

// MarkPurchaseOrderReceived transitions a queued order to received and stamps
// the reception time. The second return is false when the id is not queued.
func (r *Repository) MarkPurchaseOrderReceived(id string) (catalog.PurchaseOrder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.readOrders()
	for i := range pending {
		if pending[i].ID != id {
			continue
		}
		pending[i].Status = catalog.OrderStatusReceived
		pending[i].ReceivedAt = time.Now().UTC().Format(time.RFC3339)
		r.writeJSON(keyPendingOrders, pending)
		return pending[i], true
	}
	return catalog.PurchaseOrder{}, false
}

// ClearPendingPurchaseOrders drops the whole queue.
func (r *Repository) ClearPendingPurchaseOrders() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(keyPendingOrders)
}

// LastSyncTime returns the last successful sync, or nil when never synced.
func (r *Repository) LastSyncTime() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readTime(keyLastSync)
}

// MarkSyncedNow stamps the last-sync timestamp.
func (r *Repository) MarkSyncedNow() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeString(keyLastSync, time.Now().UTC().Format(time.RFC3339))
}

// Stats assembles the diagnostics snapshot. Pure read, no side effects.
func (r *Repository) Stats() catalog.SyncStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return catalog.SyncStats{
		PendingSales:          len(r.readSales()),
		PendingPurchaseOrders: len(r.readOrders()),
		CachedProducts:        len(r.readProducts()),
		CacheWrittenAt:        r.readTime(keyProductsCacheTime),
		LastSyncAt:            r.readTime(keyLastSync),
	}
}

// Validate checks referential sanity of the local data. Errors flag records
// a sync would mishandle; warnings flag staleness and emptiness.
func (r *Repository) Validate() catalog.ValidationReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs := []string{}
	warnings := []string{}

	products := r.readProducts()
	if len(products) == 0 {
		warnings = append(warnings, "no products cached locally")
	}
	for _, p := range products {
		if p.ID == "" {
			errs = append(errs, "cached product without id")
			continue
		}
		if p.Barcode == "" {
			errs = append(errs, fmt.Sprintf("product %s has no barcode", p.ID))
		}
		if p.Stock < 0 {
			errs = append(errs, fmt.Sprintf("product %s has negative stock: %d", p.ID, p.Stock))
		}
	}

	for _, s := range r.readSales() {
		if s.ProductID == "" {
			errs = append(errs, fmt.Sprintf("pending sale %s has no product_id", s.ID))
		}
		if s.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("pending sale %s has invalid quantity: %d", s.ID, s.Quantity))
		}
		if s.SaleNumber == "" {
			errs = append(errs, fmt.Sprintf("pending sale %s has no sale_number", s.ID))
		}
	}

	for _, o := range r.readOrders() {
		if o.ProductID == "" {
			errs = append(errs, fmt.Sprintf("pending purchase order %s has no product_id", o.ID))
		}
		if o.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("pending purchase order %s has invalid quantity: %d", o.ID, o.Quantity))
		}
	}

	if writtenAt := r.readTime(keyProductsCacheTime); writtenAt == nil {
		warnings = append(warnings, "product cache has no timestamp")
	} else if age := time.Since(*writtenAt); age > cacheStaleAfter {
		warnings = append(warnings, fmt.Sprintf("product cache is %d hours old", int(age.Hours())))
	}

	return catalog.ValidationReport{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// Export dumps the full local state for backup.
func (r *Repository) Export() catalog.Backup {
	r.mu.Lock()
	defer r.mu.Unlock()

	products := r.readProducts()
	sales := r.readSales()
	orders := r.readOrders()
	return catalog.Backup{
		Products:              products,
		PendingSales:          sales,
		PendingPurchaseOrders: orders,
		Timestamp:             time.Now().UTC(),
		Stats: catalog.SyncStats{
			PendingSales:          len(sales),
			PendingPurchaseOrders: len(orders),
			CachedProducts:        len(products),
			CacheWrittenAt:        r.readTime(keyProductsCacheTime),
			LastSyncAt:            r.readTime(keyLastSync),
		},
	}
}

// Import overwrites local state wholesale from a backup and reports counts.
// Nil sections leave the corresponding key untouched.
func (r *Repository) Import(backup catalog.Backup) catalog.ImportReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := catalog.ImportReport{}
	if backup.Products != nil {
		r.writeJSON(keyProductsCache, backup.Products)
		r.writeString(keyProductsCacheTime, time.Now().UTC().Format(time.RFC3339))
		report.Products = len(backup.Products)
	}
	if backup.PendingSales != nil {
		r.writeJSON(keyPendingSales, backup.PendingSales)
		report.PendingSales = len(backup.PendingSales)
	}
	if backup.PendingPurchaseOrders != nil {
		r.writeJSON(keyPendingOrders, backup.PendingPurchaseOrders)
		report.PendingPurchaseOrders = len(backup.PendingPurchaseOrders)
	}
	return report
}

// Settings returns the stored sync settings, defaulting to auto-sync on.
func (r *Repository) Settings() catalog.SyncSettings {
	r.mu.Lock()
	defer r.mu.Unlock()

	settings := catalog.SyncSettings{AutoSync: true}
	raw, ok := r.store.Get(keySettings)
	if !ok {
		return settings
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		r.warnCorrupt(keySettings, err)
		return catalog.SyncSettings{AutoSync: true}
	}
	return settings
}

// WriteSettings persists the sync settings.
func (r *Repository) WriteSettings(settings catalog.SyncSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeJSON(keySettings, settings)
}

// NeedsSync reports whether a reconciliation pass is due: anything pending,
// never synced, or last sync older than an hour.
func (r *Repository) NeedsSync() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.readSales()) > 0 || len(r.readOrders()) > 0 {
		return true
	}
	last := r.readTime(keyLastSync)
	if last == nil {
		return true
	}
	return time.Since(*last) > syncDueAfter
}

// --- unexported helpers; callers hold r.mu ---

func (r *Repository) readProducts() []catalog.Product {
	var products []catalog.Product
	if !r.readJSON(keyProductsCache, &products) {
		return []catalog.Product{}
	}
	return products
}

func (r *Repository) readSales() []catalog.Sale {
	var sales []catalog.Sale
	if !r.readJSON(keyPendingSales, &sales) {
		return []catalog.Sale{}
	}
	return sales
}

func (r *Repository) readOrders() []catalog.PurchaseOrder {
	var orders []catalog.PurchaseOrder
	if !r.readJSON(keyPendingOrders, &orders) {
		return []catalog.PurchaseOrder{}
	}
	return orders
}

func (r *Repository) readJSON(key string, dest any) bool {
	raw, ok := r.store.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		r.warnCorrupt(key, err)
		return false
	}
	return true
}

func (r *Repository) writeJSON(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.logWriteFailure(key, err)
		return
	}
	if err := r.store.Set(key, string(raw)); err != nil {
		r.logWriteFailure(key, err)
	}
}

func (r *Repository) writeString(key, value string) {
	if err := r.store.Set(key, value); err != nil {
		r.logWriteFailure(key, err)
	}
}

func (r *Repository) remove(key string) {
	if err := r.store.Remove(key); err != nil {
		r.logWriteFailure(key, err)
	}
}

func (r *Repository) readTime(key string) *time.Time {
	raw, ok := r.store.Get(key)
	if !ok {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		r.warnCorrupt(key, err)
		return nil
	}
	return &ts
}

func (r *Repository) warnCorrupt(key string, err error) {
	if r.logg == nil {
		return
	}
	ctx := r.logg.WithStorageKey(context.Background(), key)
	ctx = r.logg.WithField(ctx, "error", err.Error())
	r.logg.Warn(ctx, "corrupt local record treated as empty")
}

func (r *Repository) logWriteFailure(key string, err error) {
	if r.logg == nil {
		return
	}
	r.logg.Error(r.logg.WithStorageKey(context.Background(), key), "local store write failed", err)
}

func newTempID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:tempIDRandomSize]
	return fmt.Sprintf("%s%d_%s", catalog.TempIDPrefix, time.Now().UnixMilli(), suffix)
}
