package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexus-gateway/nexus/internal/auth"
)

func request(t *testing.T, header string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestBearerAuthenticatorRejectsMissingHeader(t *testing.T) {
	t.Parallel()
	a := auth.NewBearerAuthenticator("secret")
	result := a.Validate(request(t, ""))
	assert.False(t, result.Valid)
}

func TestBearerAuthenticatorRejectsWrongScheme(t *testing.T) {
	t.Parallel()
	a := auth.NewBearerAuthenticator("secret")
	result := a.Validate(request(t, "Basic abc123"))
	assert.False(t, result.Valid)
}

func TestBearerAuthenticatorRejectsWrongToken(t *testing.T) {
	t.Parallel()
	a := auth.NewBearerAuthenticator("secret")
	result := a.Validate(request(t, "Bearer wrong-token"))
	assert.False(t, result.Valid)
}

func TestBearerAuthenticatorAcceptsMatchingToken(t *testing.T) {
	t.Parallel()
	a := auth.NewBearerAuthenticator("secret")
	result := a.Validate(request(t, "Bearer secret"))
	assert.True(t, result.Valid)
	assert.Equal(t, auth.TypeBearer, result.Type)
}

func TestBearerAuthenticatorAcceptsAnyTokenWhenSecretUnset(t *testing.T) {
	t.Parallel()
	a := auth.NewBearerAuthenticator("")
	result := a.Validate(request(t, "Bearer anything"))
	assert.True(t, result.Valid)
}

func TestBearerAuthenticatorRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	a := auth.NewBearerAuthenticator("secret")
	result := a.Validate(request(t, "Bearer "))
	assert.False(t, result.Valid)
}
