// Package products exposes the catalog to the API: cached reads that work
// offline, and write-through mutations that require the backend.
package products

import (
	"context"
	"fmt"

	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	pkgerrors "github.com/cinalli-racing/lubricentro-backend/pkg/errors"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

type repository interface {
	CachedProducts() []catalog.Product
	WriteCachedProducts([]catalog.Product)
}

type remoteCatalog interface {
	CreateProduct(ctx context.Context, product catalog.Product) (catalog.Product, error)
	UpdateProduct(ctx context.Context, product catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type onlineChecker interface {
	Online() bool
}

// UpsertInput is the validated payload for creating or updating a product.
type UpsertInput struct {
	Barcode     string  `json:"barcode" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	Cost        float64 `json:"cost" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	MinStock    int     `json:"min_stock" validate:"gte=0"`
	Description string  `json:"description,omitempty"`
	Supplier    string  `json:"supplier,omitempty"`
}

// Service defines the product operations exposed to the API layer. Mutations
// are write-through: the backend is the source of truth, so they fail with an
// offline error when it is unreachable.
type Service interface {
	List(ctx context.Context) []catalog.Product
	Alerts(ctx context.Context) []catalog.InventoryAlert
	Create(ctx context.Context, input UpsertInput) (catalog.Product, error)
	Update(ctx context.Context, id string, input UpsertInput) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo   repository
	remote remoteCatalog
	online onlineChecker
	logg   *logger.Logger
}

func NewService(repo repository, remote remoteCatalog, online onlineChecker, logg *logger.Logger) (Service, error) {
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

// List serves the cached catalog; it never touches the network.
func (s *service) List(context.Context) []catalog.Product {
	return s.repo.CachedProducts()
}

// Alerts derives stock alerts from the cached catalog.
func (s *service) Alerts(context.Context) []catalog.InventoryAlert {
	return catalog.Alerts(s.repo.CachedProducts())
}

func (s *service) Create(ctx context.Context, input UpsertInput) (catalog.Product, error) {
	if !s.online.Online() {
		return catalog.Product{}, offlineErr()
	}
	created, err := s.remote.CreateProduct(ctx, productFrom(input))
	if err != nil {
		return catalog.Product{}, err
	}
	s.repo.WriteCachedProducts(append(s.repo.CachedProducts(), created))
	return created, nil
}

func (s *service) Update(ctx context.Context, id string, input UpsertInput) (catalog.Product, error) {
	if !s.online.Online() {
		return catalog.Product{}, offlineErr()
	}
	if _, ok := findProduct(s.repo.CachedProducts(), id); !ok {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found in local catalog")
	}
	product := productFrom(input)
	product.ID = id
	updated, err := s.remote.UpdateProduct(ctx, product)
	if err != nil {
		return catalog.Product{}, err
	}

	cached := s.repo.CachedProducts()
	for i := range cached {
		if cached[i].ID == id {
			cached[i] = updated
		}
	}
	s.repo.WriteCachedProducts(cached)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if !s.online.Online() {
		return offlineErr()
	}
	if err := s.remote.DeleteProduct(ctx, id); err != nil {
		return err
	}

	cached := s.repo.CachedProducts()
	kept := cached[:0]
	for _, p := range cached {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.repo.WriteCachedProducts(kept)
	return nil
}

func offlineErr() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeOffline, "product changes require a reachable backend")
}

func productFrom(input UpsertInput) catalog.Product {
	return catalog.Product{
		Barcode:     input.Barcode,
		Name:        input.Name,
		Brand:       input.Brand,
		Category:    input.Category,
		Price:       input.Price,
		Cost:        input.Cost,
		Stock:       input.Stock,
		MinStock:    input.MinStock,
		Description: input.Description,
		Supplier:    input.Supplier,
	}
}

func findProduct(products []catalog.Product, id string) (catalog.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}
