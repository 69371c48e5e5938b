// Package sales implements the point-of-sale flow: price a sale against the
// cached catalog, deliver it to the backend when reachable, queue it when not.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	pkgerrors "github.com/cinalli-racing/lubricentro-backend/pkg/errors"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

type repository interface {
	CachedProducts() []catalog.Product
	UpdateCachedProductStock(productID string, newStock int)
	AppendPendingSale(sale catalog.Sale) catalog.Sale
	PendingSales() []catalog.Sale
}

type remoteSubmitter interface {
	SubmitSale(ctx context.Context, sale catalog.Sale) (catalog.Sale, error)
}

type onlineChecker interface {
	Online() bool
}

// CreateInput is the request surface for registering a sale. UnitPrice is
// optional; when absent the cached catalog price applies.
type CreateInput struct {
	ProductID      string   `json:"product_id" validate:"required"`
	Quantity       int      `json:"quantity" validate:"required,min=1"`
	UnitPrice      *float64 `json:"unit_price,omitempty" validate:"omitempty,gt=0"`
	DiscountAmount float64  `json:"discount_amount,omitempty" validate:"gte=0"`
	PaymentMethod  string   `json:"payment_method,omitempty"`
	CustomerName   string   `json:"customer_name,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	SaleNumber     string   `json:"sale_number,omitempty"`
}

// Receipt reports the registered sale and whether it had to be queued for a
// later sync instead of reaching the backend directly.
type Receipt struct {
	Sale   catalog.Sale `json:"sale"`
	Queued bool         `json:"queued"`
}

// Service defines the sale operations exposed to the API layer.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Receipt, error)
	Pending(ctx context.Context) []catalog.Sale
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

// Create prices and registers a sale. Connectivity decides the route: online
// sales go straight to the backend, everything else lands in the pending
// queue. Cached stock is decremented either way so the counter stays honest
// between syncs.
func (s *service) Create(ctx context.Context, input CreateInput) (Receipt, error) {
	product, ok := findProduct(s.repo.CachedProducts(), input.ProductID)
	if !ok {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found in local catalog")
	}
	if input.Quantity > product.Stock {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
			WithDetails(map[string]any{"stock": product.Stock, "requested": input.Quantity})
	}

	unitPrice := product.Price
	if input.UnitPrice != nil {
		unitPrice = *input.UnitPrice
	}

	total := decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(input.Quantity)))
	final := total.Sub(decimal.NewFromFloat(input.DiscountAmount))
	if final.IsNegative() {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds sale total")
	}

	now := time.Now().UTC()
	sale := catalog.Sale{
		SaleNumber:     input.SaleNumber,
		ProductID:      product.ID,
		ProductBarcode: product.Barcode,
		ProductName:    product.Name,
		Quantity:       input.Quantity,
		UnitPrice:      unitPrice,
		TotalAmount:    total.Round(2).InexactFloat64(),
		DiscountAmount: input.DiscountAmount,
		FinalAmount:    final.Round(2).InexactFloat64(),
		PaymentMethod:  input.PaymentMethod,
		CustomerName:   input.CustomerName,
		Notes:          input.Notes,
		SaleDate:       now.Format(time.RFC3339),
	}
	if sale.SaleNumber == "" {
		sale.SaleNumber = fmt.Sprintf("V-%d", now.UnixMilli())
	}

	receipt := Receipt{Sale: sale}
	if s.online.Online() {
		acked, err := s.remote.SubmitSale(ctx, sale)
		if err == nil {
			receipt.Sale = acked
		} else {
			if s.logg != nil {
				lctx := s.logg.WithField(ctx, "sale_number", sale.SaleNumber)
				s.logg.Warn(lctx, "sale submit failed, queued for sync")
			}
			receipt.Sale = s.repo.AppendPendingSale(sale)
			receipt.Queued = true
		}
	} else {
		receipt.Sale = s.repo.AppendPendingSale(sale)
		receipt.Queued = true
	}

	s.repo.UpdateCachedProductStock(product.ID, product.Stock-input.Quantity)
	return receipt, nil
}

// Pending lists the sales still waiting for a sync pass.
func (s *service) Pending(context.Context) []catalog.Sale {
	return s.repo.PendingSales()
}

func findProduct(products []catalog.Product, id string) (catalog.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}
