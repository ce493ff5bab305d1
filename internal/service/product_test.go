package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ovenworks/storefront/internal/domain"
	"github.com/ovenworks/storefront/internal/repository"
	"github.com/ovenworks/storefront/internal/repository/rediscache"
	apperrors "github.com/ovenworks/storefront/pkg/errors"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func sampleProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:           "prod-1",
		Name:         "Sourdough Loaf",
		Slug:         "sourdough-loaf",
		Description:  "Naturally leavened, baked daily.",
		Category:     "bread",
		Price:        450,
		Currency:     "KES",
		InStock:      true,
		RatingMean:   4.5,
		RatingsCount: 12,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newTestCache(t *testing.T) *rediscache.CatalogCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rediscache.NewCatalogCache(client, 5*time.Minute)
}

// --- CreateProduct ---

func TestCreateProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:        "Cinnamon Rolls (Box of 6)",
		Description: "Soft rolls with cream cheese frosting.",
		Category:    "pastries",
		Price:       900,
		InStock:     true,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "cinnamon-rolls-box-of-6", product.Slug)
	assert.Equal(t, "KES", product.Currency, "currency defaults to KES")
	assert.Zero(t, product.RatingMean)
	assert.Zero(t, product.RatingsCount)
	repo.AssertExpectations(t)
}

func TestCreateProduct_NameRequired(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Price: 100})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Rye Loaf", Price: -1})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateProduct_BadCurrency(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Rye Loaf", Currency: "shillings"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- GetProduct and caching ---

func TestGetProduct_CacheMissFallsThrough(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestCache(t), newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-1").Return(sampleProduct(), nil).Once()

	product, err := svc.GetProduct(ctx, "prod-1")

	require.NoError(t, err)
	assert.Equal(t, "Sourdough Loaf", product.Name)
	repo.AssertExpectations(t)
}

func TestGetProduct_SecondReadServedFromCache(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestCache(t), newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-1").Return(sampleProduct(), nil).Once()

	_, err := svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)

	product, err := svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "prod-1", product.ID)

	// Only the first read hits the repository.
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGetProduct_NilCache(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-1").Return(sampleProduct(), nil)

	_, err := svc.GetProduct(ctx, "prod-1")

	require.NoError(t, err)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestCache(t), newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-missing").Return(nil, apperrors.NotFound("product", "prod-missing"))

	_, err := svc.GetProduct(ctx, "prod-missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Listing ---

func TestListProducts_ClampsPagination(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("List", ctx, mock.MatchedBy(func(f repository.ProductFilter) bool {
		return f.Page == 1 && f.PerPage == 100
	})).Return([]domain.Product{}, 0, nil)

	_, _, err := svc.ListProducts(ctx, repository.ProductFilter{Page: -3, PerPage: 9999})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// --- UpdateProduct ---

func TestUpdateProduct_RenameRegeneratesSlug(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-1").Return(sampleProduct(), nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.UpdateProduct(ctx, "prod-1", UpdateProductInput{
		Name: strPtr("Country Sourdough"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Country Sourdough", product.Name)
	assert.Equal(t, "country-sourdough", product.Slug)
	repo.AssertExpectations(t)
}

func TestUpdateProduct_InvalidatesCache(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestCache(t), newTestLogger())
	ctx := context.Background()

	// Prime the cache.
	repo.On("GetByID", ctx, "prod-1").Return(sampleProduct(), nil)
	_, err := svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)

	price := int64(500)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)
	_, err = svc.UpdateProduct(ctx, "prod-1", UpdateProductInput{Price: &price})
	require.NoError(t, err)

	// The next read misses the cache and hits the repository again.
	_, err = svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "GetByID", 3)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-missing").Return(nil, apperrors.NotFound("product", "prod-missing"))

	_, err := svc.UpdateProduct(ctx, "prod-missing", UpdateProductInput{Name: strPtr("Brioche")})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "Update")
}

// --- DeleteProduct ---

func TestDeleteProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestCache(t), newTestLogger())
	ctx := context.Background()

	repo.On("Delete", ctx, "prod-1").Return(nil)

	err := svc.DeleteProduct(ctx, "prod-1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("Delete", ctx, "prod-missing").Return(apperrors.NotFound("product", "prod-missing"))

	err := svc.DeleteProduct(ctx, "prod-missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
