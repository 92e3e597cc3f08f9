package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/invalidation"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
	"github.com/ikkim/shopfront-backend/pkg/util"
	"github.com/shopspring/decimal"
)

const (
	defaultProductPageSize = 20
	maxProductPageSize     = 100
)

type ProductListOptions struct {
	CategoryID    *uint
	BrandID       *uint
	Search        string
	Sort          repository.ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

type ProductPage struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

type CreateProductInput struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description" validate:"max=5000"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url"`
	CategoryID    *uint           `json:"category_id"`
	BrandID       *uint           `json:"brand_id"`
}

// UpdateProductInput only touches fields that are present.
type UpdateProductInput struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" validate:"omitempty,max=5000"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	ImageURL      *string          `json:"image_url" validate:"omitempty,url"`
	CategoryID    *uint            `json:"category_id"`
	BrandID       *uint            `json:"brand_id"`
}

type ProductService interface {
	ListProducts(ctx context.Context, opts ProductListOptions) (*ProductPage, error)
	GetProductByID(ctx context.Context, id uint) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)

	CreateProduct(ctx context.Context, caller capability.Identity, input CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, caller capability.Identity, id uint, input UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, caller capability.Identity, id uint) error
}

type productService struct {
	provider    *capability.Provider
	productRepo repository.ProductRepository
	invalidator *invalidation.Invalidator
	metrics     *metrics.StorefrontMetrics
}

func NewProductService(
	provider *capability.Provider,
	productRepo repository.ProductRepository,
	invalidator *invalidation.Invalidator,
	m *metrics.StorefrontMetrics,
) ProductService {
	return &productService{
		provider:    provider,
		productRepo: productRepo,
		invalidator: invalidator,
		metrics:     m,
	}
}

func (s *productService) public() *capability.CallerScoped {
	return s.provider.CallerScoped(capability.Anonymous())
}

func (s *productService) ListProducts(ctx context.Context, opts ProductListOptions) (*ProductPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultProductPageSize
	}
	if limit > maxProductPageSize {
		limit = maxProductPageSize
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	filter := repository.ProductFilter{
		CategoryID:    opts.CategoryID,
		BrandID:       opts.BrandID,
		Search:        strings.TrimSpace(opts.Search),
		SortBy:        opts.Sort,
		SortAscending: opts.SortAscending,
		Limit:         limit,
		Offset:        offset,
	}

	products, total, err := s.productRepo.FindWithFilter(ctx, s.public(), filter)
	if err != nil {
		return nil, storeFailure(ctx, "Failed to list products", err, map[string]interface{}{
			"search": filter.Search,
		})
	}

	logger.From(ctx).Debug("Products listed", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return &ProductPage{Products: products, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, s.public(), id)
	if err != nil {
		if apperrors.IsRecordNotFound(err) {
			logger.From(ctx).Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, fmt.Errorf("%w: product %d", apperrors.ErrNotFound, id)
		}
		return nil, storeFailure(ctx, "Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
	}
	return product, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.productRepo.ListCategories(ctx, s.public())
	if err != nil {
		return nil, storeFailure(ctx, "Failed to list categories", err, nil)
	}
	return categories, nil
}

func (s *productService) ListBrands(ctx context.Context) ([]model.Brand, error) {
	brands, err := s.productRepo.ListBrands(ctx, s.public())
	if err != nil {
		return nil, storeFailure(ctx, "Failed to list brands", err, nil)
	}
	return brands, nil
}

func (s *productService) CreateProduct(ctx context.Context, caller capability.Identity, input CreateProductInput) (product *model.Product, err error) {
	defer func() { s.metrics.ObserveMutation("product_create", err) }()

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkPrice(input.Price); err != nil {
		return nil, err
	}

	product = &model.Product{
		Name:          input.Name,
		Slug:          util.UniqueSlug(input.Name),
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		ImageURL:      input.ImageURL,
		CategoryID:    input.CategoryID,
		BrandID:       input.BrandID,
	}
	if err := s.productRepo.Create(ctx, s.provider.Elevated(), product); err != nil {
		return nil, storeFailure(ctx, "Failed to create product", err, map[string]interface{}{
			"name": input.Name,
		})
	}

	logger.From(ctx).Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
		"created_by": caller.UserID,
	})
	s.invalidator.Invalidate(ctx, invalidation.Product(fmt.Sprint(product.ID)))
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, caller capability.Identity, id uint, input UpdateProductInput) (product *model.Product, err error) {
	defer func() { s.metrics.ObserveMutation("product_update", err) }()

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if err := checkPrice(*input.Price); err != nil {
			return nil, err
		}
		updates["price"] = *input.Price
	}
	if input.StockQuantity != nil {
		updates["stock_quantity"] = *input.StockQuantity
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.BrandID != nil {
		updates["brand_id"] = *input.BrandID
	}
	if len(updates) == 0 {
		return nil, apperrors.Invalid("input", "변경할 항목이 없습니다")
	}

	admin := s.provider.Elevated()
	rows, err := s.productRepo.Update(ctx, admin, id, updates)
	if err != nil {
		return nil, storeFailure(ctx, "Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: product %d", apperrors.ErrNotFound, id)
	}
	s.invalidator.Invalidate(ctx, invalidation.Product(fmt.Sprint(id)))

	product, err = s.productRepo.FindByID(ctx, admin, id)
	if err != nil {
		return nil, storeFailure(ctx, "Failed to reload product", err, map[string]interface{}{
			"product_id": id,
		})
	}

	logger.From(ctx).Info("Product updated", map[string]interface{}{
		"product_id": id,
		"fields":     len(updates),
		"updated_by": caller.UserID,
	})
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, caller capability.Identity, id uint) (err error) {
	defer func() { s.metrics.ObserveMutation("product_delete", err) }()

	if err := requireAdmin(caller); err != nil {
		return err
	}
	rows, err := s.productRepo.Delete(ctx, s.provider.Elevated(), id)
	if err != nil {
		return storeFailure(ctx, "Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
	}
	if rows == 0 {
		return fmt.Errorf("%w: product %d", apperrors.ErrNotFound, id)
	}

	logger.From(ctx).Info("Product deleted", map[string]interface{}{
		"product_id": id,
		"deleted_by": caller.UserID,
	})
	s.invalidator.Invalidate(ctx, invalidation.Product(fmt.Sprint(id)))
	return nil
}

func checkPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperrors.Invalid("price", "가격은 0 이상이어야 합니다")
	}
	return nil
}
