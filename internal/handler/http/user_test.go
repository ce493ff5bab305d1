package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovenworks/storefront/internal/domain"
	apperrors "github.com/ovenworks/storefront/pkg/errors"
)

func sampleUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Baker123pass"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	return &domain.User{
		ID:           customerID,
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

// ============================================================================
// POST /api/v1/auth/register
// ============================================================================

func TestRegisterEndpoint_Success(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	body, _ := json.Marshal(RegisterRequest{
		Email:    "joy@example.com",
		Password: "Baker123pass",
		Name:     "Joy Achieng",
	})
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/register", "", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "joy@example.com", user["email"])
	assert.Equal(t, domain.RoleCustomer, user["role"])
	tokens, ok := data["tokens"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
}

func TestRegisterEndpoint_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "jane@example.com"))

	body, _ := json.Marshal(RegisterRequest{
		Email:    "jane@example.com",
		Password: "Baker123pass",
		Name:     "Jane Wanjiru",
	})
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/register", "", body)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpoint_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
		Name:     "",
	})
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/register", "", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

// ============================================================================
// POST /api/v1/auth/login
// ============================================================================

func TestLoginEndpoint_Success(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(sampleUser(t), nil)

	body, _ := json.Marshal(LoginRequest{Email: "jane@example.com", Password: "Baker123pass"})
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/login", "", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	tokens, ok := data["tokens"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, tokens["access_token"])
}

func TestLoginEndpoint_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(sampleUser(t), nil)

	body, _ := json.Marshal(LoginRequest{Email: "jane@example.com", Password: "WrongPass99"})
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/login", "", body)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginEndpoint_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	body, _ := json.Marshal(LoginRequest{Email: "nobody@example.com", Password: "Baker123pass"})
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/login", "", body)

	// Unknown accounts must not be distinguishable from bad passwords.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================================================
// POST /api/v1/auth/refresh
// ============================================================================

func TestRefreshTokenEndpoint_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	user := sampleUser(t)
	env.userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	env.userRepo.On("GetByID", mock.Anything, customerID).Return(user, nil)

	body, _ := json.Marshal(LoginRequest{Email: "jane@example.com", Password: "Baker123pass"})
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/login", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	tokens := data["tokens"].(map[string]interface{})
	refresh := tokens["refresh_token"].(string)

	body, _ = json.Marshal(RefreshTokenRequest{RefreshToken: refresh})
	rec = env.doJSON(http.MethodPost, "/api/v1/auth/refresh", "", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp = decodeResponse(t, rec)
	require.Nil(t, resp.Error)
	pair, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, pair["access_token"])
}

func TestRefreshTokenEndpoint_Garbage(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(RefreshTokenRequest{RefreshToken: "not-a-jwt"})
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/refresh", "", body)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================================================
// GET/PUT /api/v1/users/me
// ============================================================================

func TestGetProfileEndpoint_Success(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("GetByID", mock.Anything, customerID).Return(sampleUser(t), nil)

	rec := env.doJSON(http.MethodGet, "/api/v1/users/me", env.customerToken, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", data["email"])
	// The password hash must never leak through the API.
	_, leaked := data["password_hash"]
	assert.False(t, leaked)
}

func TestGetProfileEndpoint_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodGet, "/api/v1/users/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfileEndpoint_Success(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("GetByID", mock.Anything, customerID).Return(sampleUser(t), nil)
	env.userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Name == "Jane W. Kamau"
	})).Return(nil)

	name := "Jane W. Kamau"
	body, _ := json.Marshal(UpdateProfileRequest{Name: &name})
	rec := env.doJSON(http.MethodPut, "/api/v1/users/me", env.customerToken, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.userRepo.AssertExpectations(t)
}

// ============================================================================
// Admin user management
// ============================================================================

func TestListUsersEndpoint_AdminOnly(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodGet, "/api/v1/users", env.customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	env.userRepo.On("List", mock.Anything, 1, 20).Return([]domain.User{*sampleUser(t)}, 1, nil)

	rec = env.doJSON(http.MethodGet, "/api/v1/users", env.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var page map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, float64(1), page["total_count"])
}

func TestGetUserEndpoint_Admin(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("GetByID", mock.Anything, customerID).Return(sampleUser(t), nil)

	rec := env.doJSON(http.MethodGet, "/api/v1/users/"+customerID, env.adminToken, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetUserActiveEndpoint_Admin(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("GetByID", mock.Anything, customerID).Return(sampleUser(t), nil)
	env.userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return !u.IsActive
	})).Return(nil)

	active := false
	body, _ := json.Marshal(SetActiveRequest{IsActive: &active})
	rec := env.doJSON(http.MethodPut, "/api/v1/users/"+customerID+"/active", env.adminToken, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.userRepo.AssertExpectations(t)
}

func TestSetUserActiveEndpoint_CustomerForbidden(t *testing.T) {
	env := newTestEnv(t)

	active := false
	body, _ := json.Marshal(SetActiveRequest{IsActive: &active})
	rec := env.doJSON(http.MethodPut, "/api/v1/users/"+customerID+"/active", env.customerToken, body)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.userRepo.AssertNotCalled(t, "Update")
}

func TestDeleteUserEndpoint_Admin(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("Delete", mock.Anything, customerID).Return(nil)

	rec := env.doJSON(http.MethodDelete, "/api/v1/users/"+customerID, env.adminToken, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
