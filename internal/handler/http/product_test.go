package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ovenworks/storefront/internal/domain"
	"github.com/ovenworks/storefront/internal/repository"
	apperrors "github.com/ovenworks/storefront/pkg/errors"
)

// ============================================================================
// GET /api/v1/products - ListProducts
// ============================================================================

func TestListProductsEndpoint_Public(t *testing.T) {
	env := newTestEnv(t)

	env.productRepo.On("List", mock.Anything, mock.AnythingOfType("repository.ProductFilter")).
		Return([]domain.Product{*sampleProduct()}, 1, nil)

	rec := env.doJSON(http.MethodGet, "/api/v1/products", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []domain.Product `json:"data"`
		TotalCount int              `json:"total_count"`
		Page       int              `json:"page"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalCount)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "sourdough-loaf", resp.Data[0].Slug)
}

func TestListProductsEndpoint_CategoryFilter(t *testing.T) {
	env := newTestEnv(t)

	env.productRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ProductFilter) bool {
		return f.Category != nil && *f.Category == "bread"
	})).Return([]domain.Product{*sampleProduct()}, 1, nil)

	rec := env.doJSON(http.MethodGet, "/api/v1/products?category=bread", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.productRepo.AssertExpectations(t)
}

func TestListProductsEndpoint_BadPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodGet, "/api/v1/products?page=zero", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// ============================================================================
// GET /api/v1/products/{id} - GetProduct
// ============================================================================

func TestGetProductEndpoint_ByID(t *testing.T) {
	env := newTestEnv(t)

	env.productRepo.On("GetByID", mock.Anything, productID).Return(sampleProduct(), nil)

	rec := env.doJSON(http.MethodGet, "/api/v1/products/"+productID, "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Sourdough Loaf", data["name"])
}

func TestGetProductEndpoint_BySlug(t *testing.T) {
	env := newTestEnv(t)

	env.productRepo.On("GetBySlug", mock.Anything, "sourdough-loaf").Return(sampleProduct(), nil)

	rec := env.doJSON(http.MethodGet, "/api/v1/products/sourdough-loaf", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.productRepo.AssertNotCalled(t, "GetByID")
}

func TestGetProductEndpoint_NotFound(t *testing.T) {
	env := newTestEnv(t)

	env.productRepo.On("GetBySlug", mock.Anything, "no-such-cake").Return(nil, apperrors.NotFound("product", "no-such-cake"))

	rec := env.doJSON(http.MethodGet, "/api/v1/products/no-such-cake", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// POST /api/v1/products - CreateProduct (admin)
// ============================================================================

func TestCreateProductEndpoint_Admin(t *testing.T) {
	env := newTestEnv(t)

	env.productRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	body, _ := json.Marshal(CreateProductRequest{
		Name:     "Chocolate Fudge Cake",
		Category: "cakes",
		Price:    2500,
		InStock:  true,
	})
	rec := env.doJSON(http.MethodPost, "/api/v1/products", env.adminToken, body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "chocolate-fudge-cake", data["slug"])
	env.productRepo.AssertExpectations(t)
}

func TestCreateProductEndpoint_CustomerForbidden(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(CreateProductRequest{Name: "Forbidden Bread", Price: 100})
	rec := env.doJSON(http.MethodPost, "/api/v1/products", env.customerToken, body)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.productRepo.AssertNotCalled(t, "Create")
}

func TestCreateProductEndpoint_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(CreateProductRequest{Name: "Anonymous Bread", Price: 100})
	rec := env.doJSON(http.MethodPost, "/api/v1/products", "", body)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProductEndpoint_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(CreateProductRequest{Price: -5})
	rec := env.doJSON(http.MethodPost, "/api/v1/products", env.adminToken, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

// ============================================================================
// PUT /api/v1/products/{id} - UpdateProduct (admin)
// ============================================================================

func TestUpdateProductEndpoint_Admin(t *testing.T) {
	env := newTestEnv(t)

	env.productRepo.On("GetByID", mock.Anything, productID).Return(sampleProduct(), nil)
	env.productRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	inStock := false
	body, _ := json.Marshal(UpdateProductRequest{InStock: &inStock})
	rec := env.doJSON(http.MethodPut, "/api/v1/products/"+productID, env.adminToken, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["in_stock"])
}

func TestUpdateProductEndpoint_BadUUID(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(UpdateProductRequest{})
	rec := env.doJSON(http.MethodPut, "/api/v1/products/not-a-uuid", env.adminToken, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// ============================================================================
// DELETE /api/v1/products/{id} - DeleteProduct (admin)
// ============================================================================

func TestDeleteProductEndpoint_Admin(t *testing.T) {
	env := newTestEnv(t)

	env.productRepo.On("Delete", mock.Anything, productID).Return(nil)

	rec := env.doJSON(http.MethodDelete, "/api/v1/products/"+productID, env.adminToken, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteProductEndpoint_CustomerForbidden(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodDelete, "/api/v1/products/"+productID, env.customerToken, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.productRepo.AssertNotCalled(t, "Delete")
}
