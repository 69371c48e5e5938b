// Package catalog holds the lubricentro domain records shared by the cache,
// the reconciliation engine, and the HTTP API. JSON field names mirror the
// remote backend's wire format exactly so cached payloads round-trip
// byte-stable through the local store.
package catalog

import (
	"strings"
	"time"
)

// TempIDPrefix marks client-generated identifiers. A record keeps its temp id
// until the remote service acknowledges it and assigns a permanent one.
const TempIDPrefix = "pending_"

// HasTempID reports whether the identifier was generated locally.
func HasTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Product is the cached copy of a remote catalog entry. Timestamps stay as
// RFC3339 strings so the remote's values pass through unmodified.
type Product struct {
	ID          string  `json:"id"`
	Barcode     string  `json:"barcode"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Cost        float64 `json:"cost"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock"`
	Description string  `json:"description,omitempty"`
	Supplier    string  `json:"supplier"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// Sale is a point-of-sale transaction. While queued offline it carries a temp
// id; the pending queue is its only "unsynced" marker.
type Sale struct {
	ID             string  `json:"id"`
	SaleNumber     string  `json:"sale_number"`
	ProductID      string  `json:"product_id"`
	ProductBarcode string  `json:"product_barcode,omitempty"`
	ProductName    string  `json:"product_name,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TotalAmount    float64 `json:"total_amount"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`
	FinalAmount    float64 `json:"final_amount"`
	PaymentMethod  string  `json:"payment_method,omitempty"`
	CustomerName   string  `json:"customer_name,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	SaleDate       string  `json:"sale_date,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
}

// OrderStatus is the purchase order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PurchaseOrder is a restock request, queued like sales while offline.
type PurchaseOrder struct {
	ID         string      `json:"id"`
	ProductID  string      `json:"product_id"`
	Quantity   int         `json:"quantity"`
	UnitCost   float64     `json:"unit_cost"`
	Total      float64     `json:"total"`
	Supplier   string      `json:"supplier"`
	Status     OrderStatus `json:"status"`
	CreatedAt  string      `json:"created_at,omitempty"`
	ReceivedAt string      `json:"received_at,omitempty"`
}

// SyncStats is a pure-read diagnostics snapshot; pending counts are derived,
// never stored.
type SyncStats struct {
	PendingSales          int        `json:"pending_sales"`
	PendingPurchaseOrders int        `json:"pending_purchase_orders"`
	CachedProducts        int        `json:"cached_products"`
	CacheWrittenAt        *time.Time `json:"cache_written_at,omitempty"`
	LastSyncAt            *time.Time `json:"last_sync_at,omitempty"`
}

// PendingItems totals everything queued for push.
func (s SyncStats) PendingItems() int {
	return s.PendingSales + s.PendingPurchaseOrders
}

// ValidationReport is the structured result of a local-data integrity check.
// Warnings never fail validation.
type ValidationReport struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Backup is a wholesale dump of the local state for export/import.
type Backup struct {
	Products              []Product       `json:"products"`
	PendingSales          []Sale          `json:"pending_sales"`
	PendingPurchaseOrders []PurchaseOrder `json:"pending_purchase_orders"`
	Timestamp             time.Time       `json:"timestamp"`
	Stats                 SyncStats       `json:"stats"`
}

// ImportReport counts what an import overwrote.
type ImportReport struct {
	Products              int `json:"products"`
	PendingSales          int `json:"pending_sales"`
	PendingPurchaseOrders int `json:"pending_purchase_orders"`
}

// SyncSettings is the operator-tunable sync behavior kept in the local store.
type SyncSettings struct {
	AutoSync bool `json:"auto_sync"`
}
