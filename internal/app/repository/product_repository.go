package repository

import (
	"context"
	"fmt"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm/clause"
)

type ProductSort string

const (
	ProductSortCreatedAt ProductSort = "created_at"
	ProductSortPrice     ProductSort = "price"
	ProductSortWishlist  ProductSort = "wishlist"
)

type ProductFilter struct {
	CategoryID    *uint
	BrandID       *uint
	Search        string
	SortBy        ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

// ProductRepository reads the catalog through any handle and writes it elevated (staff only).
type ProductRepository interface {
	FindWithFilter(ctx context.Context, reader capability.Reader, filter ProductFilter) ([]model.Product, int64, error)
	FindByID(ctx context.Context, reader capability.Reader, id uint) (*model.Product, error)
	ListCategories(ctx context.Context, reader capability.Reader) ([]model.Category, error)
	ListBrands(ctx context.Context, reader capability.Reader) ([]model.Brand, error)

	Create(ctx context.Context, admin *capability.Elevated, product *model.Product) error
	Update(ctx context.Context, admin *capability.Elevated, id uint, updates map[string]interface{}) (int64, error)
	Delete(ctx context.Context, admin *capability.Elevated, id uint) (int64, error)
	BulkCreate(ctx context.Context, admin *capability.Elevated, products []model.Product, batchSize int) error
	FindOrCreateCategory(ctx context.Context, admin *capability.Elevated, name, slug string) (*model.Category, error)
	FindOrCreateBrand(ctx context.Context, admin *capability.Elevated, name, slug string) (*model.Brand, error)
}

type productRepository struct{}

func NewProductRepository() ProductRepository {
	return &productRepository{}
}

func (r *productRepository) FindWithFilter(ctx context.Context, reader capability.Reader, filter ProductFilter) ([]model.Product, int64, error) {
	log := logger.From(ctx)
	log.Debug("Finding products with filter", map[string]interface{}{
		"category_id": filter.CategoryID,
		"brand_id":    filter.BrandID,
		"search":      filter.Search,
		"sort_by":     filter.SortBy,
		"ascending":   filter.SortAscending,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})

	db := reader.Read(ctx)
	query := db.Model(&model.Product{})

	if filter.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.BrandID != nil {
		query = query.Where("products.brand_id = ?", *filter.BrandID)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", filter.Search)
		query = query.Where("products.name LIKE ? OR products.description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count products", err, nil)
		return nil, 0, err
	}

	wishlistCounts := db.Table("wishlist_items").
		Select("wishlist_items.product_id, COUNT(*) AS count").
		Group("wishlist_items.product_id")

	query = query.
		Joins("LEFT JOIN (?) AS wishlist_counts ON wishlist_counts.product_id = products.id", wishlistCounts).
		Select("products.*, COALESCE(wishlist_counts.count, 0) AS wishlist_count").
		Preload("Category").
		Preload("Brand")

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}
	switch filter.SortBy {
	case ProductSortPrice:
		query = query.Order("products.price " + direction)
	case ProductSortWishlist:
		query = query.Order("COALESCE(wishlist_counts.count, 0) " + direction)
	default:
		query = query.Order("products.created_at " + direction)
	}
	query = query.Order("products.id DESC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		log.Error("Failed to find products with filter", err, map[string]interface{}{
			"search": filter.Search,
		})
		return nil, 0, err
	}

	log.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) FindByID(ctx context.Context, reader capability.Reader, id uint) (*model.Product, error) {
	var product model.Product
	err := reader.Read(ctx).Preload("Category").Preload("Brand").First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ListCategories(ctx context.Context, reader capability.Reader) ([]model.Category, error) {
	var categories []model.Category
	err := reader.Read(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *productRepository) ListBrands(ctx context.Context, reader capability.Reader) ([]model.Brand, error) {
	var brands []model.Brand
	err := reader.Read(ctx).Order("name ASC").Find(&brands).Error
	return brands, err
}

func (r *productRepository) Create(ctx context.Context, admin *capability.Elevated, product *model.Product) error {
	logger.From(ctx).Debug("Creating product in database", map[string]interface{}{
		"name": product.Name,
	})

	if err := admin.DB(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		logger.From(ctx).Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}
	return nil
}

// Update applies column updates and reports rows affected (0: unknown or deleted product).
func (r *productRepository) Update(ctx context.Context, admin *capability.Elevated, id uint, updates map[string]interface{}) (int64, error) {
	res := admin.DB(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		logger.From(ctx).Error("Failed to update product in database", res.Error, map[string]interface{}{
			"product_id": id,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Delete soft-deletes the product.
func (r *productRepository) Delete(ctx context.Context, admin *capability.Elevated, id uint) (int64, error) {
	res := admin.DB(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		logger.From(ctx).Error("Failed to delete product from database", res.Error, map[string]interface{}{
			"product_id": id,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *productRepository) BulkCreate(ctx context.Context, admin *capability.Elevated, products []model.Product, batchSize int) error {
	if len(products) == 0 {
		return nil
	}
	return admin.DB(ctx).Omit(clause.Associations).CreateInBatches(products, batchSize).Error
}

func (r *productRepository) FindOrCreateCategory(ctx context.Context, admin *capability.Elevated, name, slug string) (*model.Category, error) {
	category := model.Category{Name: name, Slug: slug}
	err := admin.DB(ctx).Where(model.Category{Name: name}).FirstOrCreate(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *productRepository) FindOrCreateBrand(ctx context.Context, admin *capability.Elevated, name, slug string) (*model.Brand, error) {
	brand := model.Brand{Name: name, Slug: slug}
	err := admin.DB(ctx).Where(model.Brand{Name: name}).FirstOrCreate(&brand).Error
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

