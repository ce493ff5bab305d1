package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func staticValidator(claims *Claims, err error) TokenValidator {
	return func(token string) (*Claims, error) {
		if err != nil {
			return nil, err
		}
		return claims, nil
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	h := Auth(staticValidator(nil, errors.New("unused")))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/orders/my", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_BadFormat(t *testing.T) {
	h := Auth(staticValidator(nil, errors.New("unused")))(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/orders/my", nil)
	req.Header.Set("Authorization", "Token abc")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	h := Auth(staticValidator(nil, errors.New("expired")))(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/orders/my", nil)
	req.Header.Set("Authorization", "Bearer bad-token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InjectsClaims(t *testing.T) {
	var gotUserID, gotRole string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	h := Auth(staticValidator(&Claims{UserID: "u1", Role: "customer"}, nil))(inner)

	req := httptest.NewRequest("GET", "/api/v1/orders/my", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", gotUserID)
	assert.Equal(t, "customer", gotRole)
}

func TestRequireRole_Forbidden(t *testing.T) {
	h := Auth(staticValidator(&Claims{UserID: "u1", Role: "customer"}, nil))(
		RequireRole("admin")(okHandler()),
	)

	req := httptest.NewRequest("DELETE", "/api/v1/orders/x", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_Allowed(t *testing.T) {
	h := Auth(staticValidator(&Claims{UserID: "a1", Role: "admin"}, nil))(
		RequireRole("admin")(okHandler()),
	)

	req := httptest.NewRequest("DELETE", "/api/v1/orders/x", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
