package transport

import (
	"net/http"
	"strconv"
	"strings"

	"decor-admin/internal/domain"
	"decor-admin/internal/middleware"
	"decor-admin/internal/repository"
	"decor-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the create and update payload for a product.
// On update, stock changes only when expected_stock is sent and still
// matches the stored stock.
type ProductRequest struct {
	Title         string          `json:"title" validate:"required,max=255"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id" validate:"required,uuid"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock" validate:"gte=0"`
	ExpectedStock *int            `json:"expected_stock" validate:"omitempty,gte=0"`
	Featured      bool            `json:"featured"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url"`
	SKU           string          `json:"sku" validate:"max=100"`
	Status        string          `json:"status" validate:"omitempty,oneof=active draft archived"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    uuid.MustParse(req.CategoryID),
		Price:         req.Price,
		Stock:         req.Stock,
		ExpectedStock: req.ExpectedStock,
		Featured:      req.Featured,
		ImageURL:      req.ImageURL,
		SKU:           req.SKU,
		Status:        domain.ProductStatus(req.Status),
	}
}

// ProductHandler handles HTTP requests for catalog products
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
}

// ListProducts handles product listing and search
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.ProductQuery{
		Search: q.Get("search"),
		SortBy: q.Get("sort_by"),
	}

	var err error
	if v := q.Get("page"); v != "" {
		if query.Page, err = strconv.Atoi(v); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid page")
			return
		}
	}
	if v := q.Get("page_size"); v != "" {
		if query.PageSize, err = strconv.Atoi(v); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid page_size")
			return
		}
	}
	if v := q.Get("category_id"); v != "" {
		categoryID, err := uuid.Parse(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		query.CategoryID = &categoryID
	}
	if strings.EqualFold(q.Get("sort_order"), "asc") {
		query.SortOrder = repository.SortOrderAsc
	} else {
		query.SortOrder = repository.SortOrderDesc
	}

	page, err := h.catalogService.ListProducts(r.Context(), query)
	if err != nil {
		respondError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// CreateProduct handles product creation
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		middleware.HandleDecodeError(w, err)
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), req.input())
	if err != nil {
		respondError(w, h.logger, err, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// GetProduct handles fetching a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// UpdateProduct handles product edits and restocking
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		middleware.HandleDecodeError(w, err)
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		respondError(w, h.logger, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct handles product deletion
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
