package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cleat-store/internal/catalog"
	"cleat-store/internal/domain"
	"cleat-store/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidPrice = errors.New("price must not be negative")
)

// ShowcaseSize is how many products the on-sale, new and featured lists hold
const ShowcaseSize = 8

// ProductInput is the editable part of a product
type ProductInput struct {
	Name          string               `json:"name" validate:"required,max=255"`
	Brand         string               `json:"brand" validate:"required,max=100"`
	Category      string               `json:"category" validate:"required,max=100"`
	Description   string               `json:"description"`
	Tags          []string             `json:"tags"`
	Images        []string             `json:"images" validate:"dive,url"`
	Price         decimal.Decimal      `json:"price"`
	OriginalPrice *decimal.Decimal     `json:"original_price"`
	IsNew         bool                 `json:"is_new"`
	StockQuantity int                  `json:"stock_quantity" validate:"gte=0"`
	Sizes         []string             `json:"sizes"`
	Colors        []string             `json:"colors"`
	Status        domain.ProductStatus `json:"status" validate:"product_status"`
}

// ProductService defines storefront and back-office product operations
type ProductService interface {
	List(ctx context.Context, filters catalog.FilterState, cursor string) (catalog.Page, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Facets(ctx context.Context) (domain.Facets, error)
	OnSale(ctx context.Context) ([]domain.Product, error)
	NewArrivals(ctx context.Context) ([]domain.Product, error)
	Featured(ctx context.Context) ([]domain.Product, error)

	AdminGet(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, input ProductInput, createdBy string) (*domain.Product, error)
	Update(ctx context.Context, id string, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	products repository.ProductRepository
	facets   repository.FacetRepository
	pageSize int
	logger   *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	facets repository.FacetRepository,
	pageSize int,
	logger *zap.Logger,
) ProductService {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}
	return &productService{
		products: products,
		facets:   facets,
		pageSize: pageSize,
		logger:   logger,
	}
}

// List returns one page of the storefront listing for filters. The store
// orders pages; the page itself is put in display order, which differs for
// the relevance and newest keys.
func (s *productService) List(ctx context.Context, filters catalog.FilterState, cursor string) (catalog.Page, error) {
	filters = filters.Normalize()
	page, err := catalog.FetchPage(ctx, s.products, catalog.QueryFromFilters(filters), filters.Search, cursor, s.pageSize)
	if err != nil {
		return catalog.Page{}, err
	}
	page.Products = catalog.Apply(page.Products, filters)
	return page, nil
}

// Get returns an active product; inactive products are reported as missing
func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Visible() {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) Facets(ctx context.Context) (domain.Facets, error) {
	return s.facets.Facets(ctx)
}

// OnSale lists discounted products, biggest discount first
func (s *productService) OnSale(ctx context.Context) ([]domain.Product, error) {
	onSale := true
	return s.showcase(ctx, catalog.Query{
		IsOnSale: &onSale,
		Order:    catalog.Order{Field: catalog.OrderByDiscount, Desc: true},
	})
}

// NewArrivals lists products flagged new, latest first
func (s *productService) NewArrivals(ctx context.Context) ([]domain.Product, error) {
	isNew := true
	return s.showcase(ctx, catalog.Query{
		IsNew: &isNew,
		Order: catalog.OrderFor(catalog.SortNewest),
	})
}

// Featured lists the latest active products
func (s *productService) Featured(ctx context.Context) ([]domain.Product, error) {
	return s.showcase(ctx, catalog.Query{Order: catalog.OrderFor(catalog.SortNewest)})
}

func (s *productService) showcase(ctx context.Context, q catalog.Query) ([]domain.Product, error) {
	page, err := catalog.FetchPage(ctx, s.products, q, "", "", ShowcaseSize)
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// AdminGet returns a product whatever its status
func (s *productService) AdminGet(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// Create adds a product. New products start active with no rating or
// reviews and are attributed to createdBy.
func (s *productService) Create(ctx context.Context, input ProductInput, createdBy string) (*domain.Product, error) {
	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.NewString(),
		Status:    domain.ProductStatusActive,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(product, input)
	product.Status = domain.ProductStatusActive

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("created_by", createdBy),
	)
	return product, nil
}

// Update overwrites the editable fields of a product
func (s *productService) Update(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyInput(product, input)
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return product, nil
}

// Delete hides a product from the storefront; the row is kept
func (s *productService) Delete(ctx context.Context, id string) error {
	if err := s.products.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deactivated", zap.String("product_id", id))
	return nil
}

// applyInput copies input onto p and derives the sale and stock flags
func applyInput(p *domain.Product, input ProductInput) {
	p.Name = strings.TrimSpace(input.Name)
	p.Brand = strings.TrimSpace(input.Brand)
	p.Category = strings.TrimSpace(input.Category)
	p.Description = input.Description
	p.Tags = input.Tags
	p.Images = input.Images
	p.Price = input.Price
	p.OriginalPrice = input.OriginalPrice
	p.IsNew = input.IsNew
	p.StockQuantity = input.StockQuantity
	p.InStock = input.StockQuantity > 0
	p.Sizes = input.Sizes
	p.Colors = input.Colors
	if input.Status != "" {
		p.Status = input.Status
	}

	p.DiscountPercentage = DiscountPercentage(input.Price, input.OriginalPrice)
	p.IsOnSale = p.DiscountPercentage > 0
	if !p.IsOnSale {
		p.OriginalPrice = nil
	}
}

// DiscountPercentage is the whole-percent markdown from original to price,
// zero when there is no original price above price
func DiscountPercentage(price decimal.Decimal, original *decimal.Decimal) int {
	if original == nil || !original.GreaterThan(price) || !original.IsPositive() {
		return 0
	}
	pct := original.Sub(price).Div(*original).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}
