package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrivateKeyPEM(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return string(block), key
}

func TestAppTokenSource_MintsAndCachesToken(t *testing.T) {
	pemKey, key := testPrivateKeyPEM(t)

	var exchanges int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		assert.Equal(t, "/app/installations/987/access_tokens", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		// The Authorization header carries the app JWT, signed RS256 with
		// the app key and issued by the app id.
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
			assert.Equal(t, "RS256", tok.Method.Alg())
			return &key.PublicKey, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "12345", claims.Issuer)
		assert.True(t, claims.IssuedAt.Before(time.Now()))
		assert.True(t, claims.ExpiresAt.After(time.Now()))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token":"ghs_installation","expires_at":"2099-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	src, err := NewAppTokenSource("12345", "987", pemKey, srv.URL)
	require.NoError(t, err)

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ghs_installation", tok)

	// Second call hits the cache.
	tok2, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok, tok2)
	assert.Equal(t, 1, exchanges)
}

func TestAppTokenSource_RefreshesNearExpiry(t *testing.T) {
	pemKey, _ := testPrivateKeyPEM(t)

	var exchanges int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token":"ghs_fresh","expires_at":"2099-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	src, err := NewAppTokenSource("12345", "987", pemKey, srv.URL)
	require.NoError(t, err)

	// First mint, then advance the clock past expiry minus the margin.
	base := time.Now()
	src.now = func() time.Time { return base }
	src.expires = base.Add(30 * time.Second)
	src.token = "ghs_stale"

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ghs_fresh", tok)
	assert.Equal(t, 1, exchanges)
}

func TestAppTokenSource_ExchangeFailure(t *testing.T) {
	pemKey, _ := testPrivateKeyPEM(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	src, err := NewAppTokenSource("12345", "987", pemKey, srv.URL)
	require.NoError(t, err)

	_, err = src.Token(context.Background())
	assert.Error(t, err)
}

func TestNewAppTokenSource_BadKey(t *testing.T) {
	_, err := NewAppTokenSource("12345", "987", "not a pem key", "")
	assert.Error(t, err)
}
