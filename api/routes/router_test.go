package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	"github.com/cinalli-racing/lubricentro-backend/internal/connectivity"
	productsvc "github.com/cinalli-racing/lubricentro-backend/internal/products"
	purchasesvc "github.com/cinalli-racing/lubricentro-backend/internal/purchasing"
	"github.com/cinalli-racing/lubricentro-backend/internal/reconcile"
	"github.com/cinalli-racing/lubricentro-backend/internal/remote"
	salesvc "github.com/cinalli-racing/lubricentro-backend/internal/sales"
	"github.com/cinalli-racing/lubricentro-backend/internal/syncstate"
	"github.com/cinalli-racing/lubricentro-backend/pkg/config"
	"github.com/cinalli-racing/lubricentro-backend/pkg/localstore"
)

// fakeBackend plays the authoritative API the app syncs against.
type fakeBackend struct {
	mu       sync.Mutex
	healthy  bool
	products []catalog.Product
	sales    []catalog.Sale
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		healthy := b.healthy
		b.mu.Unlock()
		if !healthy {
			http.Error(w, `{"error":{"code":"UNAVAILABLE","message":"down"}}`, http.StatusServiceUnavailable)
			return
		}
		writeData(w, map[string]string{"status": "live"})
	})
	mux.HandleFunc("/api/v1/products", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.healthy {
			http.Error(w, `{"error":{"code":"UNAVAILABLE","message":"down"}}`, http.StatusServiceUnavailable)
			return
		}
		writeData(w, b.products)
	})
	mux.HandleFunc("/api/v1/sales", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.healthy {
			http.Error(w, `{"error":{"code":"UNAVAILABLE","message":"down"}}`, http.StatusServiceUnavailable)
			return
		}
		var sale catalog.Sale
		json.NewDecoder(r.Body).Decode(&sale)
		sale.ID = "srv-sale"
		b.sales = append(b.sales, sale)
		writeData(w, sale)
	})
	mux.HandleFunc("/api/v1/purchase-orders", func(w http.ResponseWriter, r *http.Request) {
		var order catalog.PurchaseOrder
		json.NewDecoder(r.Body).Decode(&order)
		order.ID = "srv-order"
		writeData(w, order)
	})
	return mux
}

func (b *fakeBackend) setHealthy(healthy bool) {
	b.mu.Lock()
	b.healthy = healthy
	b.mu.Unlock()
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

type fixture struct {
	router  http.Handler
	backend *fakeBackend
	prober  *connectivity.Prober
	repo    *syncstate.Repository
	ctrl    *reconcile.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := &fakeBackend{products: []catalog.Product{
		{ID: "p1", Barcode: "7791234", Name: "Elaion 10W-40", Price: 25.5, Stock: 10, MinStock: 3},
	}}
	backendSrv := httptest.NewServer(backend.handler())
	t.Cleanup(backendSrv.Close)

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Remote.BaseURL = backendSrv.URL
	cfg.Remote.RequestTimeout = 2 * time.Second

	client, err := remote.NewClient(cfg.Remote, nil)
	require.NoError(t, err)

	store := localstore.NewMemory()
	repo := syncstate.NewRepository(store, nil)
	prober := connectivity.NewProber(client, time.Minute, nil)
	engine := reconcile.NewEngine(repo, client, prober, nil, nil)
	ctrl := reconcile.NewController(engine, repo, prober, nil)
	ctrl.Start(context.Background())
	t.Cleanup(ctrl.Stop)

	productService, err := productsvc.NewService(repo, client, prober, nil)
	require.NoError(t, err)
	saleService, err := salesvc.NewService(repo, client, prober, nil)
	require.NoError(t, err)
	purchaseService, err := purchasesvc.NewService(repo, client, prober, nil)
	require.NoError(t, err)

	router := NewRouter(
		cfg, nil, store, repo, prober, ctrl,
		productService, saleService, purchaseService, prometheus.NewRegistry(),
	)
	return &fixture{router: router, backend: backend, prober: prober, repo: repo, ctrl: ctrl}
}

func (f *fixture) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ready map[string]string
	decodeData(t, rec, &ready)
	require.Equal(t, "ok", ready["store"])
	require.Equal(t, "offline", ready["backend"])
}

func TestOfflineSaleFlowsThroughSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Seed the catalog the way a previous sync would have.
	f.repo.WriteCachedProducts([]catalog.Product{
		{ID: "p1", Barcode: "7791234", Name: "Elaion 10W-40", Price: 25.5, Stock: 10, MinStock: 3},
	})

	// Backend down: the sale must queue, not fail.
	rec := f.request(t, http.MethodPost, "/api/v1/sales", map[string]any{
		"product_id": "p1",
		"quantity":   2,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var receipt salesvc.Receipt
	decodeData(t, rec, &receipt)
	require.True(t, receipt.Queued)
	require.True(t, catalog.HasTempID(receipt.Sale.ID))

	rec = f.request(t, http.MethodGet, "/api/v1/sales/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []catalog.Sale
	decodeData(t, rec, &pending)
	require.Len(t, pending, 1)

	// Product mutations refuse to work offline.
	rec = f.request(t, http.MethodPost, "/api/v1/products", map[string]any{
		"barcode": "111",
		"name":    "Filtro de aceite",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Backend returns; the reconnect probe triggers the sync pass.
	f.backend.setHealthy(true)
	f.prober.CheckNow(ctx)

	var status reconcile.Snapshot
	rec = f.request(t, http.MethodGet, "/api/v1/sync/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &status)
	require.True(t, status.Online)
	require.Zero(t, status.PendingItems)
	require.NotNil(t, status.LastSync)

	f.backend.mu.Lock()
	delivered := len(f.backend.sales)
	f.backend.mu.Unlock()
	require.Equal(t, 1, delivered)
}

func TestSyncMaintenanceEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/sync/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report catalog.ValidationReport
	decodeData(t, rec, &report)
	require.True(t, report.IsValid)

	rec = f.request(t, http.MethodGet, "/api/v1/sync/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var backup catalog.Backup
	decodeData(t, rec, &backup)

	backup.Products = []catalog.Product{{ID: "p9", Barcode: "999", Name: "Grasa"}}
	rec = f.request(t, http.MethodPost, "/api/v1/sync/import", backup)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.repo.CachedProducts(), 1)

	rec = f.request(t, http.MethodPut, "/api/v1/sync/settings", catalog.SyncSettings{AutoSync: false})
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, f.repo.Settings().AutoSync)

	rec = f.request(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
