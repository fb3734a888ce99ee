package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(a *Auth) http.Handler {
	return a.WithAuth(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, _ := SubjectFromContext(r.Context())
		_, _ = w.Write([]byte(sub))
	})))
}

func TestAuthCookieAndBearer(t *testing.T) {
	a := NewAuth("test-secret-test-secret-test-secret")
	tok, err := a.Sign("admin", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	rr := httptest.NewRecorder()
	protected(a).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "admin", rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	protected(a).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthRejects(t *testing.T) {
	a := NewAuth("test-secret-test-secret-test-secret")
	other := NewAuth("another-secret-another-secret-000")
	foreign, err := other.Sign("admin", time.Hour)
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := a.Sign("admin", time.Hour)
	require.NoError(t, err)
	a.now = time.Now

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer: issuer, Subject: "admin", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{"missing": "", "foreign": foreign, "expired": expired, "none alg": unsigned, "garbage": "abc"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
			if tok != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
			}
			rr := httptest.NewRecorder()
			protected(a).ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"success":false,"error":"unauthorized"}`, rr.Body.String())
		})
	}
}

func TestSessionCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok", time.Hour, true)
	c := rr.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, CookieName, c[0].Name)
	assert.True(t, c[0].HttpOnly)
	assert.True(t, c[0].Secure)
	assert.Equal(t, 3600, c[0].MaxAge)

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr, false)
	c = rr.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, "", c[0].Value)
	assert.Less(t, c[0].MaxAge, 0)
}
