package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password",
	}
	rec, _, c := env.doJSONRequest(http.MethodPost, "/api/v1/signup", payload)
	require.NoError(t, env.A.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Alice", resp["name"])
	require.Equal(t, "user", resp["role"])
	require.Equal(t, "free", resp["subscription"])
	require.NotEmpty(t, resp["id"])
	require.NotContains(t, resp, "password")

	// duplicate email is rejected with no registry growth
	_, _, c2 := env.doJSONRequest(http.MethodPost, "/api/v1/signup", payload)
	err := env.A.Signup(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)

	users, err := env.Identity.Accounts()
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestSignupMissingFields(t *testing.T) {
	env := newTestEnv(t)

	_, _, c := env.doJSONRequest(http.MethodPost, "/api/v1/signup", map[string]string{"email": "x@example.com"})
	err := env.A.Signup(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.signup("Alice", "alice@example.com", "")
	require.NoError(t, env.Identity.Logout())

	load := map[string]string{"email": "alice@example.com", "password": "password"}
	rec, _, c := env.doJSONRequest(http.MethodPost, "/api/v1/login", load)
	require.NoError(t, env.A.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, false, resp["is_admin"])
	user := resp["user"].(map[string]interface{})
	require.Equal(t, "alice@example.com", user["email"])

	var sessionCookie bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "session" && ck.Value != "" {
			sessionCookie = true
		}
	}
	require.True(t, sessionCookie)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signup("Alice", "alice@example.com", "")
	require.NoError(t, env.Identity.Logout())

	load := map[string]string{"email": "alice@example.com", "password": "nope"}
	_, _, c := env.doJSONRequest(http.MethodPost, "/api/v1/login", load)
	err := env.A.Login(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
	require.Nil(t, env.Identity.CurrentUser())
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.signup("Alice", "alice@example.com", "")

	rec, _, c := env.doJSONRequest(http.MethodPost, "/api/v1/logout", nil)
	require.NoError(t, env.A.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "logged out", resp["message"])
	require.Equal(t, "/", resp["redirect"])
	require.Nil(t, env.Identity.CurrentUser())
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	_, _, c := env.doJSONRequest(http.MethodGet, "/api/v1/me", nil)
	err := env.A.Me(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)

	env.signup("Alice", "alice@example.com", "")
	rec, _, c2 := env.doJSONRequest(http.MethodGet, "/api/v1/me", nil)
	require.NoError(t, env.A.Me(c2))
	require.Equal(t, http.StatusOK, rec.Code)
}
