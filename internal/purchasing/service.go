// Package purchasing handles restock orders: priced against the cached
// catalog, submitted to the backend when reachable, queued when not.
package purchasing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	pkgerrors "github.com/cinalli-racing/lubricentro-backend/pkg/errors"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

type repository interface {
	CachedProducts() []catalog.Product
	UpdateCachedProductStock(productID string, newStock int)
	AppendPendingPurchaseOrder(order catalog.PurchaseOrder) catalog.PurchaseOrder
	PendingPurchaseOrders() []catalog.PurchaseOrder
	MarkPurchaseOrderReceived(id string) (catalog.PurchaseOrder, bool)
}

type remoteSubmitter interface {
	SubmitPurchaseOrder(ctx context.Context, order catalog.PurchaseOrder) (catalog.PurchaseOrder, error)
}

type onlineChecker interface {
	Online() bool
}

// CreateInput is the request surface for a new purchase order. UnitCost
// defaults to the cached product cost when absent.
type CreateInput struct {
	ProductID string   `json:"product_id" validate:"required"`
	Quantity  int      `json:"quantity" validate:"required,min=1"`
	UnitCost  *float64 `json:"unit_cost,omitempty" validate:"omitempty,gt=0"`
	Supplier  string   `json:"supplier,omitempty"`
}

// Receipt reports the registered order and whether it was queued for sync.
type Receipt struct {
	Order  catalog.PurchaseOrder `json:"order"`
	Queued bool                  `json:"queued"`
}

// Service defines the purchase order operations exposed to the API layer.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Receipt, error)
	Receive(ctx context.Context, id string) (catalog.PurchaseOrder, error)
	Pending(ctx context.Context) []catalog.PurchaseOrder
}

type service struct {
	repo   repository
	remote remoteSubmitter
	online onlineChecker
	logg   *logger.Logger
}

func NewService(repo repository, remote remoteSubmitter, online onlineChecker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sync state repository required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote service required")
	}
	if online == nil {
		return nil, fmt.Errorf("connectivity observer required")
	}
	return &service{repo: repo, remote: remote, online: online, logg: logg}, nil
}

// Create registers a restock order. Like sales, connectivity decides the
// route: submit directly when online, queue for the next sync otherwise.
func (s *service) Create(ctx context.Context, input CreateInput) (Receipt, error) {
	product, ok := findProduct(s.repo.CachedProducts(), input.ProductID)
	if !ok {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found in local catalog")
	}

	unitCost := product.Cost
	if input.UnitCost != nil {
		unitCost = *input.UnitCost
	}
	supplier := input.Supplier
	if supplier == "" {
		supplier = product.Supplier
	}

	total := decimal.NewFromFloat(unitCost).Mul(decimal.NewFromInt(int64(input.Quantity)))
	order := catalog.PurchaseOrder{
		ProductID: product.ID,
		Quantity:  input.Quantity,
		UnitCost:  unitCost,
		Total:     total.Round(2).InexactFloat64(),
		Supplier:  supplier,
		Status:    catalog.OrderStatusPending,
	}

	receipt := Receipt{Order: order}
	if s.online.Online() {
		acked, err := s.remote.SubmitPurchaseOrder(ctx, order)
		if err == nil {
			receipt.Order = acked
			return receipt, nil
		}
		if s.logg != nil {
			lctx := s.logg.WithField(ctx, "product_id", order.ProductID)
			s.logg.Warn(lctx, "purchase order submit failed, queued for sync")
		}
	}
	receipt.Order = s.repo.AppendPendingPurchaseOrder(order)
	receipt.Queued = true
	return receipt, nil
}

// Receive marks a queued order as received and adds its quantity to the
// cached stock so the counter reflects the shelf before the next sync.
func (s *service) Receive(_ context.Context, id string) (catalog.PurchaseOrder, error) {
	order, ok := s.repo.MarkPurchaseOrderReceived(id)
	if !ok {
		return catalog.PurchaseOrder{}, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not queued")
	}
	if product, ok := findProduct(s.repo.CachedProducts(), order.ProductID); ok {
		s.repo.UpdateCachedProductStock(product.ID, product.Stock+order.Quantity)
	}
	return order, nil
}

// Pending lists the purchase orders still waiting for a sync pass.
func (s *service) Pending(context.Context) []catalog.PurchaseOrder {
	return s.repo.PendingPurchaseOrders()
}

func findProduct(products []catalog.Product, id string) (catalog.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}
