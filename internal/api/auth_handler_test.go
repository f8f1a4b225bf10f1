package api_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edushell/portal/internal/api"
	"github.com/edushell/portal/internal/identity"
)

func TestLoginPage_SanitizesNext(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	_, body := c.get("/login?next=%2Fexercises%2Fsum")
	assert.Contains(t, body, `value="/exercises/sum"`)

	_, body = c.get("/login?next=https%3A%2F%2Fevil.example")
	assert.Contains(t, body, `name="next" value="/"`)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	token, err := e.verifier.Issue("user-9", "Grace", []identity.Role{identity.RoleStudent}, time.Hour)
	require.NoError(t, err)

	form := url.Values{"token": {token}, "next": {"/exercises/sum"}}
	resp, _ := c.post("/login", form.Encode())
	requireRedirect(t, resp, "/exercises/sum")

	// the cookie now carries the identity
	resp, body := c.get("/exercises/sum")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Grace")
}

func TestLogin_Rejected(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	form := url.Values{"token": {"garbage"}, "next": {"/"}}
	resp, body := c.post("/login", form.Encode())

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "The token was rejected.")
}

func TestLogout_ClearsCookies(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	c.get("/exercises")

	resp, _ := c.post("/logout", "")
	requireRedirect(t, resp, "/")

	cleared := map[string]bool{}
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 {
			cleared[ck.Name] = true
		}
	}
	assert.True(t, cleared[identity.CookieName])
	assert.True(t, cleared[api.SessionCookie])
}
