package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppStyles_Slots(t *testing.T) {
	assert.Equal(t, []string{
		"root", "container", "titleWrapper", "subtitle", "card",
		"formGrid", "recipientsRow", "tagGroupWrapper", "footer", "statusText",
	}, AppStyles.Names())

	card, ok := AppStyles.Slot("card")
	require.True(t, ok)
	assert.Contains(t, card.Decls, Decl{"border-radius", "14px"})

	_, ok = AppStyles.Slot("missing")
	assert.False(t, ok)
}

func TestStyleSheet_CSS(t *testing.T) {
	sheet := StyleSheet{
		{"a", []Decl{{"color", "red"}}},
		{"b", []Decl{{"margin", "0"}, {"gap", "1px"}}},
	}
	assert.Equal(t, ".a {\n  color: red;\n}\n\n.b {\n  margin: 0;\n  gap: 1px;\n}\n", sheet.CSS())
	assert.Equal(t, AppStyles.CSS(), AppStyles.CSS())
}

func TestServeCSS(t *testing.T) {
	app := fiber.New()
	app.Get("/assets/app.css", AppStyles.ServeCSS())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/assets/app.css", nil))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/css"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), ".statusText {\n  min-height: 22px;\n  font-weight: 500;\n}")
}
