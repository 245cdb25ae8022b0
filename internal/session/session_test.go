package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner(testSecret)

	tok, err := s.Sign("abc")
	require.NoError(t, err)

	id, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestSigner_RejectsForeignTokens(t *testing.T) {
	s := NewSigner(testSecret)

	other, err := NewSigner("another-secret-another-secret-xx").Sign("abc")
	require.NoError(t, err)
	_, err = s.Parse(other)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "abc",
		Issuer:  "someone-else",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.Parse(wrongIssuer)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func echoSession(w http.ResponseWriter, r *http.Request) {
	id, _ := IDFromContext(r.Context())
	_, _ = w.Write([]byte(id))
}

func TestMiddleware_IssuesAndReusesSession(t *testing.T) {
	signer := NewSigner(testSecret)
	h := Middleware(signer, false, nil)(http.HandlerFunc(echoSession))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	first := rec.Body.String()
	require.NotEmpty(t, first)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, first, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestMiddleware_ReplacesTamperedCookie(t *testing.T) {
	h := Middleware(NewSigner(testSecret), false, nil)(http.HandlerFunc(echoSession))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "forged", rec.Result().Cookies()[0].Value)
	assert.NotEmpty(t, rec.Body.String())
}
