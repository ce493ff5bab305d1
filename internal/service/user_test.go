package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovenworks/storefront/internal/auth"
	"github.com/ovenworks/storefront/internal/domain"
	apperrors "github.com/ovenworks/storefront/pkg/errors"
)

// --- Mock Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, page, perPage int) ([]domain.User, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-unit-tests-only!", 15*time.Minute, 7*24*time.Hour)
}

func newTestUserService(repo *mockUserRepository) *UserService {
	return NewUserService(repo, newTestJWTManager(), newTestLogger())
}

func sampleUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Baker123pass"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	return &domain.User{
		ID:           "user-1",
		Email:        "jane@example.com",
		PasswordHash: string(hash),
		Name:         "Jane Wanjiru",
		Phone:        "254711000111",
		Role:         domain.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, tokens, err := svc.Register(ctx, RegisterInput{
		Email:    "jane@example.com",
		Password: "Baker123pass",
		Name:     "Jane Wanjiru",
		Phone:    "254711000111",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "Baker123pass", user.PasswordHash, "password must be stored hashed")
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	repo.AssertExpectations(t)
}

func TestRegister_WeakPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"no uppercase", "baker123pass"},
		{"no lowercase", "BAKER123PASS"},
		{"no digit", "BakerPassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockUserRepository)
			svc := newTestUserService(repo)

			_, _, err := svc.Register(context.Background(), RegisterInput{
				Email:    "jane@example.com",
				Password: tt.password,
				Name:     "Jane Wanjiru",
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create")
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "jane@example.com"))

	_, _, err := svc.Register(ctx, RegisterInput{
		Email:    "jane@example.com",
		Password: "Baker123pass",
		Name:     "Jane Wanjiru",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "jane@example.com").Return(sampleUser(t), nil)

	user, tokens, err := svc.Login(ctx, LoginInput{
		Email:    "jane@example.com",
		Password: "Baker123pass",
	})

	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "jane@example.com").Return(sampleUser(t), nil)

	_, _, err := svc.Login(ctx, LoginInput{
		Email:    "jane@example.com",
		Password: "WrongPassword1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	// An unknown email reports the same error as a wrong password.
	repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	_, _, err := svc.Login(ctx, LoginInput{
		Email:    "nobody@example.com",
		Password: "Baker123pass",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	user := sampleUser(t)
	user.IsActive = false
	repo.On("GetByEmail", ctx, "jane@example.com").Return(user, nil)

	_, _, err := svc.Login(ctx, LoginInput{
		Email:    "jane@example.com",
		Password: "Baker123pass",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- RefreshToken ---

func TestRefreshToken_RoundTrip(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "jane@example.com").Return(sampleUser(t), nil)
	repo.On("GetByID", ctx, "user-1").Return(sampleUser(t), nil)

	_, tokens, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "Baker123pass"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)
}

func TestRefreshToken_Garbage(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)

	_, err := svc.RefreshToken(context.Background(), "not-a-jwt")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefreshToken_DeactivatedAccount(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	active := sampleUser(t)
	repo.On("GetByEmail", ctx, "jane@example.com").Return(active, nil)

	_, tokens, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "Baker123pass"})
	require.NoError(t, err)

	deactivated := sampleUser(t)
	deactivated.IsActive = false
	repo.On("GetByID", ctx, "user-1").Return(deactivated, nil)

	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- Profile ---

func TestUpdateProfile_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("GetByID", ctx, "user-1").Return(sampleUser(t), nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{
		Name:  strPtr("Jane W. Kamau"),
		Phone: strPtr("254722000222"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane W. Kamau", user.Name)
	assert.Equal(t, "254722000222", user.Phone)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_EmptyName(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("GetByID", ctx, "user-1").Return(sampleUser(t), nil)

	_, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{Name: strPtr("")})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update")
}

// --- Admin operations ---

func TestListUsers_ClampsPagination(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("List", ctx, 1, 100).Return([]domain.User{}, 0, nil)

	_, _, err := svc.ListUsers(ctx, 0, 9999)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSetUserActive_Deactivate(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("GetByID", ctx, "user-1").Return(sampleUser(t), nil)
	repo.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return !u.IsActive
	})).Return(nil)

	user, err := svc.SetUserActive(ctx, "user-1", false)

	require.NoError(t, err)
	assert.False(t, user.IsActive)
	repo.AssertExpectations(t)
}
