package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/app/policy"
	"dukaan/pkg/apperr"
	"dukaan/pkg/cache"
	"dukaan/pkg/storage"
)

const productCacheTTL = 5 * time.Minute

// CatalogService manages products. Writes are admin-only; reads are public.
type CatalogService struct {
	products ProductRepository
}

func NewCatalogService(products ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// ProductInput is the validated create/update payload.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Description string  `json:"description" validate:"nullable,max=2000"`
	Price       float64 `json:"price" validate:"required,numeric"`
	Category    string  `json:"category" validate:"nullable,max=100"`
}

// Create adds a product to the catalog.
func (s *CatalogService) Create(ctx context.Context, p policy.Principal, in ProductInput) (*models.Product, error) {
	if err := policy.Authorize(p, policy.ManageCatalog, nil); err != nil {
		return nil, err
	}
	if in.Price <= 0 {
		return nil, apperr.Validation("Price must be greater than zero")
	}

	now := time.Now()
	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		InStock:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperr.Wrap(err, "create product")
	}

	s.invalidateListCache()
	return product, nil
}

// Get returns one product by id.
func (s *CatalogService) Get(ctx context.Context, productID string) (*models.Product, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, apperr.NotFound("Product not found")
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Wrap(err, "find product")
	}
	return product, nil
}

// ListResult is a page of products.
type ListResult struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// List returns a page of products, served from cache when possible.
func (s *CatalogService) List(ctx context.Context, category string, page, limit int) (*ListResult, error) {
	key := fmt.Sprintf("products:%s:%d:%d", category, page, limit)

	var cached ListResult
	if cache.Get(key, &cached) {
		return &cached, nil
	}

	products, total, err := s.products.List(ctx, category, page, limit)
	if err != nil {
		return nil, apperr.Wrap(err, "list products")
	}

	out := &ListResult{Products: products, Total: total}
	cache.Set(key, out, productCacheTTL) //nolint:errcheck
	return out, nil
}

// Update edits a product. Existing order snapshots are untouched by design.
func (s *CatalogService) Update(ctx context.Context, p policy.Principal, productID string, in ProductInput) (*models.Product, error) {
	if err := policy.Authorize(p, policy.ManageCatalog, nil); err != nil {
		return nil, err
	}
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if in.Price <= 0 {
		return nil, apperr.Validation("Price must be greater than zero")
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Category = in.Category
	product.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, apperr.Wrap(err, "update product")
	}

	s.invalidateListCache()
	return product, nil
}

// Delete soft-deletes by flipping inStock=false. Historical orders keep
// their product references.
func (s *CatalogService) Delete(ctx context.Context, p policy.Principal, productID string) error {
	if err := policy.Authorize(p, policy.ManageCatalog, nil); err != nil {
		return err
	}
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return apperr.NotFound("Product not found")
	}
	if err := s.products.SetInStock(ctx, id, false); err != nil {
		if err == ErrNotFound {
			return apperr.NotFound("Product not found")
		}
		return apperr.Wrap(err, "delete product")
	}
	s.invalidateListCache()
	return nil
}

// AttachImage stores an uploaded product image on the configured disk and
// saves its public URL on the product.
func (s *CatalogService) AttachImage(ctx context.Context, p policy.Principal, productID string, filename string, data []byte) (*models.Product, error) {
	if err := policy.Authorize(p, policy.ManageCatalog, nil); err != nil {
		return nil, err
	}
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("products/%s/%s", product.ID.Hex(), filename)
	if err := storage.Put(path, data); err != nil {
		return nil, apperr.Wrap(err, "store product image")
	}

	product.Image = storage.URL(path)
	product.UpdatedAt = time.Now()
	if err := s.products.Update(ctx, product); err != nil {
		return nil, apperr.Wrap(err, "update product image")
	}

	s.invalidateListCache()
	return product, nil
}

// invalidateListCache is best-effort: entries also expire by TTL.
func (s *CatalogService) invalidateListCache() {
	cache.Del("products::1:20") //nolint:errcheck
}
