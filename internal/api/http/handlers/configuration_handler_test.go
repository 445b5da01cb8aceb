package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complykit/request-service/internal/auth"
	"github.com/complykit/request-service/internal/domain"
)

type fakeConfigurationRepo struct {
	store map[string]string
}

func (r *fakeConfigurationRepo) GetConfiguration(_ context.Context, dataspace, key string) (string, error) {
	return r.store[dataspace+"/"+key], nil
}

func (r *fakeConfigurationRepo) SetConfiguration(_ context.Context, dataspace, key, value string) error {
	r.store[dataspace+"/"+key] = value
	return nil
}

func newConfigurationApp(principal *auth.Principal) (*fiber.App, *fakeConfigurationRepo) {
	repo := &fakeConfigurationRepo{store: map[string]string{}}
	handler := NewConfigurationHandler(repo)

	app := fiber.New()
	app.Put("/configuration", func(c *fiber.Ctx) error {
		if principal != nil {
			auth.StorePrincipal(c, principal)
		}
		return c.Next()
	}, handler.SetConfiguration)
	return app, repo
}

func adminPrincipal() *auth.Principal {
	return &auth.Principal{User: &domain.User{ID: "admin-1", Dataspace: "acme", Role: domain.UserRoleAdmin}}
}

func putConfiguration(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/configuration", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSetConfigurationStoresCredential(t *testing.T) {
	app, repo := newConfigurationApp(adminPrincipal())

	resp := putConfiguration(t, app, `{"key":"github_token","value":"ghp_secret"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "ghp_secret", repo.store["acme/github_token"])
}

func TestSetConfigurationRejectsUnknownKey(t *testing.T) {
	app, repo := newConfigurationApp(adminPrincipal())

	resp := putConfiguration(t, app, `{"key":"smtp_password","value":"x"}`)
	assert.NotEqual(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, repo.store)
}

func TestSetConfigurationRequiresPrincipal(t *testing.T) {
	app, repo := newConfigurationApp(nil)

	resp := putConfiguration(t, app, `{"key":"github_token","value":"ghp_secret"}`)
	assert.NotEqual(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, repo.store)
}
