package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinalli-racing/lubricentro-backend/api/controllers"
	"github.com/cinalli-racing/lubricentro-backend/api/middleware"
	"github.com/cinalli-racing/lubricentro-backend/internal/connectivity"
	productsvc "github.com/cinalli-racing/lubricentro-backend/internal/products"
	purchasesvc "github.com/cinalli-racing/lubricentro-backend/internal/purchasing"
	"github.com/cinalli-racing/lubricentro-backend/internal/reconcile"
	salesvc "github.com/cinalli-racing/lubricentro-backend/internal/sales"
	"github.com/cinalli-racing/lubricentro-backend/internal/syncstate"
	"github.com/cinalli-racing/lubricentro-backend/pkg/config"
	"github.com/cinalli-racing/lubricentro-backend/pkg/localstore"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store localstore.Store,
	repo *syncstate.Repository,
	observer connectivity.Observer,
	syncCtrl *reconcile.Controller,
	productService productsvc.Service,
	saleService salesvc.Service,
	purchaseService purchasesvc.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, store, observer))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/alerts", controllers.ProductAlerts(productService, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Put("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(productService, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", controllers.CreateSale(saleService, logg))
			r.Get("/pending", controllers.PendingSales(saleService, logg))
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Post("/", controllers.CreatePurchaseOrder(purchaseService, logg))
			r.Get("/pending", controllers.PendingPurchaseOrders(purchaseService, logg))
			r.Post("/{orderId}/receive", controllers.ReceivePurchaseOrder(purchaseService, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", controllers.SyncStatus(syncCtrl, logg))
			r.Post("/trigger", controllers.SyncTrigger(syncCtrl, logg))
			r.Get("/validate", controllers.SyncValidate(repo, logg))
			r.Get("/export", controllers.SyncExport(repo, logg))
			r.Post("/import", controllers.SyncImport(repo, logg))
			r.Get("/settings", controllers.SyncSettingsGet(repo, logg))
			r.Put("/settings", controllers.SyncSettingsPut(repo, logg))
		})
	})

	return r
}
