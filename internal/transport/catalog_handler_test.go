package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"decor-admin/internal/domain"
	"decor-admin/internal/repository"
	"decor-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCatalogService struct {
	lastInput    service.ProductInput
	lastQuery    service.ProductQuery
	lastCategory service.CategoryInput
	err          error
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: uuid.New(), Title: input.Title, Stock: input.Stock}, nil
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: id, Title: input.Title, Stock: input.Stock}, nil
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: id}, nil
}

func (s *stubCatalogService) ListProducts(ctx context.Context, query service.ProductQuery) (*service.ProductPage, error) {
	s.lastQuery = query
	return &service.ProductPage{Products: []*domain.Product{}, Page: 1, PageSize: service.DefaultPageSize}, nil
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, input service.CategoryInput) (*domain.Category, error) {
	s.lastCategory = input
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Category{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return []*domain.Category{}, s.err
}

func (s *stubCatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Category{ID: id}, nil
}

func newCatalogRouter(svc service.CatalogService) http.Handler {
	r := chi.NewRouter()
	NewProductHandler(svc, zap.NewNop()).RegisterRoutes(r)
	NewCategoryHandler(svc, zap.NewNop()).RegisterRoutes(r)
	return r
}

func TestCreateProduct_Handler(t *testing.T) {
	svc := &stubCatalogService{}
	categoryID := uuid.New()

	w := doJSON(newCatalogRouter(svc), "POST", "/products", map[string]interface{}{
		"title":       "Ceramic Vase",
		"category_id": categoryID.String(),
		"price":       "1250.00",
		"stock":       12,
		"status":      "draft",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, categoryID, svc.lastInput.CategoryID)
	assert.Equal(t, "1250", svc.lastInput.Price.String())
	assert.Equal(t, domain.ProductStatusDraft, svc.lastInput.Status)
}

func TestCreateProduct_HandlerValidation(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{})

	bodies := []map[string]interface{}{
		{"category_id": uuid.NewString()},
		{"title": "Vase", "category_id": "kitchen"},
		{"title": "Vase", "category_id": uuid.NewString(), "stock": -1},
		{"title": "Vase", "category_id": uuid.NewString(), "status": "sold"},
		{"title": "Vase", "category_id": uuid.NewString(), "colour": "teal"},
	}
	for _, body := range bodies {
		w := doJSON(router, "POST", "/products", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, fmt.Sprint(body))
	}
}

func TestProductHandler_ErrorMapping(t *testing.T) {
	id := uuid.NewString()
	body := map[string]interface{}{"title": "Vase", "category_id": uuid.NewString()}

	svc := &stubCatalogService{err: fmt.Errorf("%w: 2 order(s)", service.ErrProductInUse)}
	assert.Equal(t, http.StatusConflict, doJSON(newCatalogRouter(svc), "DELETE", "/products/"+id, nil).Code)

	svc = &stubCatalogService{err: repository.ErrProductNotFound}
	assert.Equal(t, http.StatusNotFound, doJSON(newCatalogRouter(svc), "PUT", "/products/"+id, body).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(newCatalogRouter(svc), "GET", "/products/"+id, nil).Code)

	svc = &stubCatalogService{}
	assert.Equal(t, http.StatusNoContent, doJSON(newCatalogRouter(svc), "DELETE", "/products/"+id, nil).Code)
}

func TestListProducts_Handler(t *testing.T) {
	svc := &stubCatalogService{}
	categoryID := uuid.New()
	router := newCatalogRouter(svc)

	w := doJSON(router, "GET", "/products?page=2&page_size=10&sort_by=price&sort_order=asc&category_id="+categoryID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, svc.lastQuery.Page)
	assert.Equal(t, 10, svc.lastQuery.PageSize)
	assert.Equal(t, "price", svc.lastQuery.SortBy)
	assert.Equal(t, repository.SortOrderAsc, svc.lastQuery.SortOrder)
	assert.Equal(t, categoryID, *svc.lastQuery.CategoryID)

	var page service.ProductPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))

	assert.Equal(t, http.StatusBadRequest, doJSON(router, "GET", "/products?page=two", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, "GET", "/products?category_id=rugs", nil).Code)
}

func TestCategoryHandler(t *testing.T) {
	svc := &stubCatalogService{}
	router := newCatalogRouter(svc)

	w := doJSON(router, "POST", "/categories", map[string]interface{}{"name": "Wall Art"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, svc.lastCategory.Active)

	w = doJSON(router, "POST", "/categories", map[string]interface{}{"name": "Hidden", "active": false})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, svc.lastCategory.Active)

	assert.Equal(t, http.StatusOK, doJSON(router, "GET", "/categories", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, "GET", "/categories/wall-art", nil).Code)

	svc.err = repository.ErrCategoryAlreadyExists
	assert.Equal(t, http.StatusConflict, doJSON(router, "POST", "/categories", map[string]interface{}{"name": "Wall Art"}).Code)

	svc.err = repository.ErrCategoryNotFound
	assert.Equal(t, http.StatusNotFound, doJSON(router, "GET", "/categories/"+uuid.NewString(), nil).Code)
}

func TestUpdateProduct_ExpectedStock(t *testing.T) {
	svc := &stubCatalogService{}
	id := uuid.NewString()
	body := map[string]interface{}{
		"title":       "Ceramic Vase",
		"category_id": uuid.NewString(),
		"price":       "1250.00",
		"stock":       12,
	}

	w := doJSON(newCatalogRouter(svc), "PUT", "/products/"+id, body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.lastInput.ExpectedStock)

	body["expected_stock"] = 5
	w = doJSON(newCatalogRouter(svc), "PUT", "/products/"+id, body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastInput.ExpectedStock)
	assert.Equal(t, 5, *svc.lastInput.ExpectedStock)

	svc.err = fmt.Errorf("%w: expected 5, found 3", service.ErrStockChanged)
	w = doJSON(newCatalogRouter(svc), "PUT", "/products/"+id, body)
	assert.Equal(t, http.StatusConflict, w.Code)
}
