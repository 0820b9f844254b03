package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukex/stepwise/pkg/mocks"
	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/otelhelper"
	"github.com/dukex/stepwise/pkg/testutil"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestApp() (*fiber.App, *mocks.MockPersistence) {
	persistence := mocks.NewMockPersistence()

	app := NewAPI(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		persistence,
		otelhelper.NewNoopTracer(),
	)

	return app.App(), persistence
}

func send(t *testing.T, app *fiber.App, method, path string, body string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(raw)
}

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp()

	resp, body := send(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Stepwise API", body)
}

func TestAPI_Probes(t *testing.T) {
	app, _ := setupTestApp()

	for _, path := range []string{"/livez", "/readyz"} {
		resp, body := send(t, app, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "OK", body, path)
	}
}

func TestAPI_Health(t *testing.T) {
	app, persistence := setupTestApp()
	persistence.On("HealthCheck", mock.Anything).Return(nil)

	resp, body := send(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"healthy"`)
}

func TestAPI_StepRoutes(t *testing.T) {
	const id = "0190f3a4-8c2e-7b1a-9f00-000000000003"

	app, persistence := setupTestApp()
	persistence.Steps.On("GetByAlternateKey", mock.Anything, "install-go").
		Return(testutil.CreateTestStep(testutil.WithStepID(id)), nil)
	persistence.Steps.On("GetByID", mock.Anything, id).
		Return(testutil.CreateTestStep(testutil.WithStepID(id)), nil)
	persistence.Steps.On("ResolveMany", mock.Anything, mock.Anything).
		Return(&models.Resolution{Steps: []*models.Step{}, Missing: []string{"nope"}}, nil)

	resp, body := send(t, app, http.MethodGet, "/steps/by-key/install-go", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, id)

	resp, body = send(t, app, http.MethodGet, "/steps/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"slug":"install-go"`)

	resp, body = send(t, app, http.MethodPost, "/steps/resolve", `{"refs":["nope"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"missing":["nope"]`)

	persistence.AssertExpectations(t)
}

func TestAPI_AddonRoutes(t *testing.T) {
	const baseID = "0190f3a4-8c2e-7b1a-9f00-000000000001"

	app, persistence := setupTestApp()
	persistence.Addons.On("ListByBase", mock.Anything, baseID).Return([]*models.Addon{}, nil)
	persistence.Addons.On("AvailableTargets", mock.Anything, baseID).Return([]*models.UseCase{}, nil)

	resp, body := send(t, app, http.MethodGet, "/use-cases/"+baseID+"/addons", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"addons":[]}`, body)

	resp, body = send(t, app, http.MethodGet, "/use-cases/"+baseID+"/addon-targets", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"use_cases":[]}`, body)

	persistence.AssertExpectations(t)
}
