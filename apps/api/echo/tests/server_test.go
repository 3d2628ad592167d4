package tests

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/tests"
)

func TestServer_cors(t *testing.T) {
	db.Reset()
	const frontend = "http://localhost:3000"
	token := getToken(t, testutil.CreateUser(t, usrRepo, "Bob", "bob@example.com", "", user.RoleStudent))

	t.Run("preflight", func(t *testing.T) {
		req, rec := newRequest(http.MethodOptions, "/api/auth/login")
		req.Header.Set(echo.HeaderOrigin, frontend)
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
		req.Header.Set(echo.HeaderAccessControlRequestHeaders, "authorization,content-type")
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, frontend, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
		assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), echo.HeaderAuthorization)
	})

	t.Run("preflight on a parametrized route", func(t *testing.T) {
		req, rec := newRequest(http.MethodOptions, "/api/courses/enroll/42")
		req.Header.Set(echo.HeaderOrigin, frontend)
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, frontend, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})

	t.Run("simple request", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/courses", token)
		req.Header.Set(echo.HeaderOrigin, frontend)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, frontend, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/courses", token)
		req.Header.Set(echo.HeaderOrigin, "http://evil.example.com")
		app.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}
