// Package remote talks to the authoritative backend. All failures are
// value-returned; callers decide whether to queue, retry, or surface them.
package remote

import (
	"context"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
)

// Service is the collaborator contract consumed by the reconciliation engine
// and the domain services. Submit acks echo the stored record carrying the
// server-assigned permanent id.
type Service interface {
	Ping(ctx context.Context) error
	FetchAllProducts(ctx context.Context) ([]catalog.Product, error)
	SubmitSale(ctx context.Context, sale catalog.Sale) (catalog.Sale, error)
	SubmitPurchaseOrder(ctx context.Context, order catalog.PurchaseOrder) (catalog.PurchaseOrder, error)

	CreateProduct(ctx context.Context, product catalog.Product) (catalog.Product, error)
	UpdateProduct(ctx context.Context, product catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}
