package syncstate

// Canonical mapping from logical record type to storage key. This table is
// the only place keys may be spelled; every read/write in the package goes
// through these constants.
const (
	keyProductsCache     = "products.cache"
	keyProductsCacheTime = "products.cache.timestamp"
	keyPendingSales      = "sales.pending"
	keyPendingOrders     = "purchaseOrders.pending"
	keyLastSync          = "sync.lastTimestamp"
	keySettings          = "settings"
)
