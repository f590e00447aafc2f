package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vdmx/vdmx-backend/app/models"
	"github.com/vdmx/vdmx-backend/internal/pkg/env"
	"github.com/vdmx/vdmx-backend/internal/pkg/middleware"
)

type memForms struct {
	mu   sync.Mutex
	rows []models.QuoteForm
}

func (m *memForms) Create(form *models.QuoteForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	form.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, *form)
	return nil
}

func (m *memForms) GetByFolio(folio string) (*models.QuoteForm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].Folio == folio {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memForms) List(offset, limit int) ([]models.QuoteForm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.rows) {
		end = len(m.rows)
	}
	out := make([]models.QuoteForm, end-offset)
	copy(out, m.rows[offset:end])
	return out, nil
}

func (m *memForms) Count() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func newFormTestApp(forms *memForms) *fiber.App {
	ctrl := NewFormController(forms)
	app := fiber.New()
	app.Post("/api/forms", ctrl.HandleSubmitForm)
	app.Get("/api/forms", middleware.APIKeyAuthMiddleware(), ctrl.HandleListForms)
	app.Get("/api/forms/health", ctrl.HandleFormHealth)
	return app
}

func TestSubmitForm(t *testing.T) {
	forms := &memForms{}
	app := newFormTestApp(forms)

	payload := []byte(`{"name":"Ana Garcia","email":"ana@example.com","phone":"5512345678","vehicle_brand":"Nissan","vehicle_model":"Versa","vehicle_year":2021,"postal_code":"06700"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/forms", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.NotEmpty(t, out["folio"])

	require.Len(t, forms.rows, 1)
	assert.Equal(t, "Ana Garcia", forms.rows[0].Name)
	assert.JSONEq(t, string(payload), forms.rows[0].PayloadJSON)
}

func TestSubmitForm_ValidationFailed(t *testing.T) {
	app := newFormTestApp(&memForms{})

	payload := []byte(`{"name":"Ana Garcia","email":"not-an-email"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/forms", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, "validation_failed", out["error"])
}

func TestListForms_RequiresAPIKey(t *testing.T) {
	env.Env = map[string]string{"ADMIN_API_KEY": "admin-key-1"}
	t.Cleanup(func() { env.Env = map[string]string{} })

	forms := &memForms{}
	require.NoError(t, forms.Create(&models.QuoteForm{Folio: "f-1", Name: "Ana", Email: "ana@example.com"}))
	app := newFormTestApp(forms)

	// no key
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/forms", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// wrong key
	req := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// right key via header
	req = httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	req.Header.Set("X-API-Key", "admin-key-1")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, float64(1), out["total"])

	// right key via bearer token
	req = httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer admin-key-1")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestListForms_ClosedWithoutConfiguredKey(t *testing.T) {
	env.Env = map[string]string{}
	t.Cleanup(func() { env.Env = map[string]string{} })

	app := newFormTestApp(&memForms{})
	req := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	req.Header.Set("X-API-Key", "anything")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestFormHealth(t *testing.T) {
	forms := &memForms{}
	require.NoError(t, forms.Create(&models.QuoteForm{Folio: "f-1", Name: "Ana", Email: "ana@example.com"}))
	app := newFormTestApp(forms)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/forms/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, "quote_forms", out["table"])
	assert.Equal(t, float64(1), out["records"])
}
