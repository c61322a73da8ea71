package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Decl is a single CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// Slot is a named style class used by the form page.
type Slot struct {
	Name  string
	Decls []Decl
}

// StyleSheet is an ordered list of slots. It is immutable after construction.
type StyleSheet []Slot

// AppStyles is the visual theme of the form page.
var AppStyles = StyleSheet{
	{"root", []Decl{
		{"width", "180vh"},
		{"min-height", "100vh"},
		{"margin", "0"},
		{"padding", "40px 16px"},
		{"display", "flex"},
		{"justify-content", "center"},
		{"align-items", "flex-start"},
		{"background", "linear-gradient(180deg, #ffffff 0%, #f7f8ff 70%, #f0f4ff 100%)"},
	}},
	{"container", []Decl{
		{"width", "100%"},
		{"max-width", "1100px"},
	}},
	{"titleWrapper", []Decl{
		{"display", "flex"},
		{"flex-direction", "column"},
		{"text-align", "center"},
		{"margin-bottom", "32px"},
	}},
	{"subtitle", []Decl{
		{"margin-top", "8px"},
		{"font-size", "16px"},
		{"color", "#666"},
	}},
	{"card", []Decl{
		{"width", "100%"},
		{"padding", "20px"},
		{"border-radius", "14px"},
		{"box-shadow", "0 12px 30px rgba(0,0,0,0.08)"},
		{"background", "#ffffff"},
	}},
	{"formGrid", []Decl{
		{"display", "flex"},
		{"flex-direction", "column"},
		{"gap", "18px"},
		{"margin-top", "10px"},
	}},
	{"recipientsRow", []Decl{
		{"display", "flex"},
		{"gap", "10px"},
		{"align-items", "center"},
	}},
	{"tagGroupWrapper", []Decl{
		{"margin-top", "8px"},
	}},
	{"footer", []Decl{
		{"margin-top", "28px"},
		{"display", "flex"},
		{"align-items", "center"},
		{"gap", "12px"},
		{"flex-wrap", "wrap"},
	}},
	{"statusText", []Decl{
		{"min-height", "22px"},
		{"font-weight", "500"},
	}},
}

// Slot returns the named slot.
func (s StyleSheet) Slot(name string) (Slot, bool) {
	for _, slot := range s {
		if slot.Name == name {
			return slot, true
		}
	}
	return Slot{}, false
}

// Names lists the slot names in order.
func (s StyleSheet) Names() []string {
	names := make([]string, len(s))
	for i, slot := range s {
		names[i] = slot.Name
	}
	return names
}

// CSS renders the sheet as class rules, one per slot, in order.
func (s StyleSheet) CSS() string {
	var b strings.Builder
	for i, slot := range s {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(".")
		b.WriteString(slot.Name)
		b.WriteString(" {\n")
		for _, d := range slot.Decls {
			b.WriteString("  ")
			b.WriteString(d.Property)
			b.WriteString(": ")
			b.WriteString(d.Value)
			b.WriteString(";\n")
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// ServeCSS serves the sheet at /assets/app.css.
func (s StyleSheet) ServeCSS() fiber.Handler {
	css := s.CSS()
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/css; charset=utf-8")
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
		return c.SendString(css)
	}
}
