package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// GetAllProducts returns a page of products
// GET /api/v1/products?category_id=&brand_id=&search=&sort=price|created_at|wishlist&order=asc|desc&limit=&offset=
func (ctrl *ProductController) GetAllProducts(c *gin.Context) {
	categoryID, ok := optionalUint(c.Query("category_id"))
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 카테고리 ID입니다")
		return
	}
	brandID, ok := optionalUint(c.Query("brand_id"))
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 브랜드 ID입니다")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	page, err := ctrl.productService.ListProducts(c.Request.Context(), service.ProductListOptions{
		CategoryID:    categoryID,
		BrandID:       brandID,
		Search:        c.Query("search"),
		Sort:          repository.ProductSort(c.Query("sort")),
		SortAscending: c.Query("order") == "asc",
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	respondOK(c, gin.H{
		"products": page.Products,
		"count":    len(page.Products),
		"total":    page.Total,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GetProductByID returns a product by ID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"product": product})
}

// GetCategories GET /api/v1/products/categories
func (ctrl *ProductController) GetCategories(c *gin.Context) {
	categories, err := ctrl.productService.ListCategories(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"categories": categories})
}

// GetBrands GET /api/v1/products/brands
func (ctrl *ProductController) GetBrands(c *gin.Context) {
	brands, err := ctrl.productService.ListBrands(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"brands": brands})
}

// CreateProduct creates a new product (admin only)
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req service.CreateProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	apperrors.Success(c, http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct updates the fields present in the body (admin only)
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), middleware.GetIdentity(c), id, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"product": product})
}

// DeleteProduct soft-deletes a product (admin only)
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"message": "상품이 삭제되었습니다"})
}
