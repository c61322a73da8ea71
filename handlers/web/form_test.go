package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"staggermail/config"
	"staggermail/middleware"
	"staggermail/models"
	"staggermail/templates"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormApp(backend Scheduler) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        templates.NewEngine(),
		ViewsLayout:  "layouts/main",
		ErrorHandler: middleware.ErrorHandler,
	})
	app.Use(middleware.LocaleMiddleware())

	h := NewFormHandler(NewController(backend, nil), config.Default(), nil)
	app.Get("/", h.ShowForm)
	app.Post("/recipients/add", h.HandleAddRecipient)
	app.Post("/recipients/remove", h.HandleRemoveRecipient)
	app.Post("/submit", h.HandleSubmit)
	return app
}

func post(t *testing.T, app *fiber.App, path string, form url.Values) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestShowForm(t *testing.T) {
	app := newFormApp(&stubBackend{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	assert.Contains(t, body, "Rads Automatic Email sender")
	assert.Contains(t, body, `value="*/2 * * * *"`)
	assert.Contains(t, body, "Schedule job")
	assert.NotContains(t, body, `name="recipients"`)
	assert.NotContains(t, body, " disabled>")
}

func TestShowForm_EnterSubmitsJob(t *testing.T) {
	app := newFormApp(&stubBackend{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	// Implicit submission clicks the first submit button of the form.
	first := strings.Index(body, `type="submit"`)
	require.NotEqual(t, -1, first)
	tag := body[strings.LastIndex(body[:first], "<button"):first]
	assert.Contains(t, tag, `id="default-submit"`)
	assert.Less(t, strings.Index(body, `id="default-submit"`), strings.Index(body, `id="add-recipient"`))
	assert.Contains(t, body, `id="default-submit" type="submit" formaction="/submit"`)
}

func TestShowForm_Japanese(t *testing.T) {
	app := newFormApp(&stubBackend{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?lang=ja", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `<html lang="ja">`)
}

func TestAddAndRemoveRecipient(t *testing.T) {
	app := newFormApp(&stubBackend{})

	body := post(t, app, "/recipients/add", url.Values{
		"from_email":      {"a@b.com"},
		"recipients":      {"c@d.com"},
		"recipient_input": {"  e@f.com  "},
		"prompt":          {"hello"},
		"cron":            {"0 9 * * *"},
	})
	assert.Contains(t, body, `name="recipients" value="c@d.com"`)
	assert.Contains(t, body, `name="recipients" value="e@f.com"`)
	assert.Contains(t, body, `id="recipient_input" name="recipient_input" type="email" placeholder="Add recipient email" value=""`)
	assert.Contains(t, body, `value="a@b.com"`)
	assert.Contains(t, body, `value="0 9 * * *"`)
	assert.Contains(t, body, ">hello</textarea>")

	body = post(t, app, "/recipients/add", url.Values{
		"recipients":      {"c@d.com"},
		"recipient_input": {"c@d.com"},
	})
	assert.Equal(t, 1, strings.Count(body, `name="recipients"`))

	body = post(t, app, "/recipients/remove", url.Values{
		"recipients": {"c@d.com", "e@f.com"},
		"remove":     {"c@d.com"},
	})
	assert.NotContains(t, body, `name="recipients" value="c@d.com"`)
	assert.Contains(t, body, `name="recipients" value="e@f.com"`)
}

func TestHandleSubmit(t *testing.T) {
	backend := &stubBackend{res: &models.ScheduleResponse{JobID: "123"}}
	app := newFormApp(backend)

	body := post(t, app, "/submit", url.Values{
		"subject":         {"Weekly"},
		"from_email":      {"a@b.com"},
		"from_name":       {"Rad"},
		"recipients":      {"c@d.com", "e@f.com"},
		"recipient_input": {""},
		"prompt":          {"hello"},
		"cron":            {"*/5 * * * *"},
	})

	assert.Contains(t, body, "Job scheduled! Job ID: 123")
	assert.NotContains(t, body, " disabled>")
	require.Equal(t, 1, backend.calls)
	assert.Equal(t, "Weekly", backend.got.Subject)
	require.NotNil(t, backend.got.FromName)
	assert.Equal(t, "Rad", *backend.got.FromName)
	assert.Equal(t, []string{"c@d.com", "e@f.com"}, backend.got.Recipients)
	assert.Equal(t, "*/5 * * * *", backend.got.Cron)
}

func TestHandleSubmit_MissingFields(t *testing.T) {
	backend := &stubBackend{}
	app := newFormApp(backend)

	body := post(t, app, "/submit", url.Values{"from_email": {"a@b.com"}})

	assert.Contains(t, body, "Please fill in From Email, at least one recipient, and a prompt.")
	assert.Zero(t, backend.calls)
}
