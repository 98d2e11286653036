package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/bizflow/bizflow/internal/auth"
	"github.com/bizflow/bizflow/internal/identity"
	"github.com/bizflow/bizflow/internal/kvstore"
	"github.com/bizflow/bizflow/internal/tenant"
)

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	Store    *kvstore.MemoryStore
	Identity *identity.Service
	Tenant   *tenant.Service
	A        *AuthHandler
	P        *ProductHandler
	S        *SaleHandler
	R        *ReportHandler
	Ad       *AdminHandler
	Secret   []byte
}

func newTestEnv(t *testing.T) *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := kvstore.NewMemoryStore()

	ids, err := identity.NewService(store, logger)
	require.NoError(t, err)
	ten, err := tenant.NewService(store, ids, logger)
	require.NoError(t, err)

	secret := []byte("test-jwt-secret")
	return &testEnv{
		T:        t,
		E:        echo.New(),
		Store:    store,
		Identity: ids,
		Tenant:   ten,
		A:        &AuthHandler{Identity: ids, JWTSecret: secret},
		P:        &ProductHandler{Tenant: ten},
		S:        &SaleHandler{Tenant: ten},
		R:        &ReportHandler{Tenant: ten, Store: store},
		Ad:       &AdminHandler{Identity: ids},
		Secret:   secret,
	}
}

func (env *testEnv) doJSONRequest(method, target string, payload interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *http.Request, echo.Context) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(env.T, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, req, c
}

// signup establishes a session through the handler and returns the
// session cookie, like a browser would hold it.
func (env *testEnv) signup(name, email, role string) *http.Cookie {
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": "password",
		"role":     role,
	}
	rec, _, c := env.doJSONRequest(http.MethodPost, "/api/v1/signup", payload)
	require.NoError(env.T, env.A.Signup(c))
	require.Equal(env.T, http.StatusCreated, rec.Code)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.CookieName {
			return ck
		}
	}
	env.T.Fatal("session cookie not set")
	return nil
}
