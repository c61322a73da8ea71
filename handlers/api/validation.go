package api

import (
	"net/mail"
	"strings"

	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
)

// FieldError is one entry of a 422 validation response.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ValidationErrors collects field errors in request order.
type ValidationErrors []FieldError

func (v *ValidationErrors) add(msg, typ string, loc ...any) {
	*v = append(*v, FieldError{Loc: append([]any{"body"}, loc...), Msg: msg, Type: typ})
}

// Respond writes the errors as {"detail": [...]} with status 422.
func (v ValidationErrors) Respond(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": v})
}

// validAddress reports whether s is a bare email address.
func validAddress(s string) bool {
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}

// normalizeRecipients trims, lower-cases domains and drops duplicates,
// keeping first occurrence order.
func normalizeRecipients(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = utils.NormalizeEmail(r)
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// validateMessage checks the fields shared by the one-off and staggered requests.
func validateMessage(fromEmail string, recipients []string, prompt string) ValidationErrors {
	var errs ValidationErrors
	if !validAddress(fromEmail) {
		errs.add("value is not a valid email address", "value_error.email", "from_email")
	}
	for i, r := range recipients {
		if !validAddress(r) {
			errs.add("value is not a valid email address", "value_error.email", "recipients", i)
		}
	}
	if strings.TrimSpace(prompt) == "" {
		errs.add("field required", "value_error.missing", "prompt")
	}
	return errs
}
