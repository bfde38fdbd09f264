package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"decor-admin/internal/domain"
	"decor-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	ErrProductInUse   = errors.New("product is referenced by existing orders")
	ErrNegativeStock  = errors.New("stock cannot be negative")
	ErrNegativePrice  = errors.New("price cannot be negative")
	ErrEmptySlug      = errors.New("name must contain at least one letter or digit")
	ErrStockChanged   = errors.New("stock changed since the product was loaded")
	nonSlugCharacters = regexp.MustCompile(`[^\w\s-]+`)
	slugSeparators    = regexp.MustCompile(`[\s_-]+`)
)

// GenerateSlug lowercases title, drops punctuation and joins words with dashes
func GenerateSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = nonSlugCharacters.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ProductInput holds the editable fields of a product. On update, Stock is
// only written when ExpectedStock is set and still matches the stored value;
// a nil ExpectedStock leaves stock untouched.
type ProductInput struct {
	Title         string
	Description   string
	CategoryID    uuid.UUID
	Price         decimal.Decimal
	Stock         int
	ExpectedStock *int
	Featured      bool
	ImageURL      string
	SKU           string
	Status        domain.ProductStatus
}

// ProductQuery selects a page of products
type ProductQuery struct {
	CategoryID *uuid.UUID
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  repository.SortOrder
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// CategoryInput holds the fields of a new category
type CategoryInput struct {
	Name        string
	Description string
	Active      bool
	SortOrder   int
}

// CatalogService manages products and categories
type CatalogService interface {
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
}

type catalogService struct {
	repos  repository.Repositories
	tx     repository.Transactor
	logger *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(repos repository.Repositories, tx repository.Transactor, logger *zap.Logger) CatalogService {
	return &catalogService{
		repos:  repos,
		tx:     tx,
		logger: logger,
	}
}

func (input ProductInput) check() error {
	if input.Stock < 0 {
		return ErrNegativeStock
	}
	if input.Price.IsNegative() {
		return ErrNegativePrice
	}
	if GenerateSlug(input.Title) == "" {
		return ErrEmptySlug
	}
	return nil
}

func (input ProductInput) apply(product *domain.Product) {
	product.Title = strings.TrimSpace(input.Title)
	product.Slug = GenerateSlug(input.Title)
	product.Description = input.Description
	product.CategoryID = input.CategoryID
	product.Price = input.Price
	product.Stock = input.Stock
	product.Featured = input.Featured
	product.ImageURL = input.ImageURL
	product.SKU = input.SKU
	product.Status = input.Status
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := input.check(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Categories.FindByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.apply(product)

	if err := s.repos.Products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug),
		zap.Int("stock", product.Stock),
	)

	return product, nil
}

// UpdateProduct replaces the editable fields, which is also how stock is
// restocked by hand. A stock write must name the stock it was based on, so an
// edit made before a deduction committed cannot undo it.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := input.check(); err != nil {
		return nil, err
	}

	var product *domain.Product
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Categories.FindByID(ctx, input.CategoryID); err != nil {
			return err
		}

		existing, err := repos.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		previousStock := existing.Stock
		if input.ExpectedStock != nil && *input.ExpectedStock != previousStock {
			return fmt.Errorf("%w: expected %d, found %d", ErrStockChanged, *input.ExpectedStock, previousStock)
		}

		input.apply(existing)
		if input.ExpectedStock == nil {
			existing.Stock = previousStock
		}
		existing.UpdatedAt = time.Now().UTC()

		if err := repos.Products.Update(ctx, existing); err != nil {
			return err
		}

		if existing.Stock != previousStock {
			s.logger.Info("Product stock adjusted",
				zap.String("product_id", id.String()),
				zap.Int("from", previousStock),
				zap.Int("to", existing.Stock),
			)
		}

		product = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// DeleteProduct refuses to remove products that orders still reference
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Products.FindByIDForUpdate(ctx, id); err != nil {
			return err
		}

		count, err := repos.Orders.CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d order(s)", ErrProductInUse, count)
		}

		if err := repos.Products.Delete(ctx, id); err != nil {
			return err
		}

		s.logger.Info("Product deleted", zap.String("product_id", id.String()))
		return nil
	})
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.repos.Products.FindByID(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = DefaultPageSize
	}
	if query.PageSize > MaxPageSize {
		query.PageSize = MaxPageSize
	}

	var (
		products []*domain.Product
		total    int
		err      error
	)
	if strings.TrimSpace(query.Search) != "" {
		products, total, err = s.repos.Products.Search(ctx, query.Search, query.Page, query.PageSize)
	} else {
		products, total, err = s.repos.Products.List(ctx, query.CategoryID, query.Page, query.PageSize, query.SortBy, query.SortOrder)
	}
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalPages: (total + query.PageSize - 1) / query.PageSize,
	}, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	slug := GenerateSlug(input.Name)
	if slug == "" {
		return nil, ErrEmptySlug
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: input.Description,
		Active:      input.Active,
		SortOrder:   input.SortOrder,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repos.Categories.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.repos.Categories.List(ctx)
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.repos.Categories.FindByID(ctx, id)
}
