package web

import (
	"staggermail/config"
	"staggermail/models"
	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// FormHandler serves the scheduling form. The draft is carried in the
// submitted form itself, so it lives exactly as long as the page.
type FormHandler struct {
	controller  *Controller
	defaultCron string
	csrfToken   func(c *fiber.Ctx) string
}

// NewFormHandler creates the page handlers. csrfToken issues the token
// embedded in the form; it may be nil when CSRF protection is off.
func NewFormHandler(controller *Controller, cfg *config.Config, csrfToken func(c *fiber.Ctx) string) *FormHandler {
	defaultCron := models.DefaultCron
	if cfg != nil && cfg.Form.DefaultCron != "" {
		defaultCron = cfg.Form.DefaultCron
	}
	return &FormHandler{
		controller:  controller,
		defaultCron: defaultCron,
		csrfToken:   csrfToken,
	}
}

// ShowForm renders a fresh draft
func (h *FormHandler) ShowForm(c *fiber.Ctx) error {
	d := models.NewDraft()
	d.Cron = h.defaultCron
	return h.render(c, d)
}

// HandleAddRecipient moves the recipient input into the list
func (h *FormHandler) HandleAddRecipient(c *fiber.Ctx) error {
	d := h.draftFromForm(c)
	d = models.Reduce(d, models.AddRecipient{})
	return h.render(c, d)
}

// HandleRemoveRecipient drops the recipient named by the "remove" field
func (h *FormHandler) HandleRemoveRecipient(c *fiber.Ctx) error {
	d := h.draftFromForm(c)
	d = models.Reduce(d, models.RemoveRecipient{Email: c.FormValue("remove")})
	return h.render(c, d)
}

// HandleSubmit schedules the job and re-renders the form with the result
func (h *FormHandler) HandleSubmit(c *fiber.Ctx) error {
	d := h.draftFromForm(c)
	d = h.controller.WithLocalizer(localizerFrom(c)).Submit(c.UserContext(), d)
	return h.render(c, d)
}

// draftFromForm rebuilds the draft from the posted fields. Recipients come
// back as repeated hidden inputs and are replayed through the reducer.
func (h *FormHandler) draftFromForm(c *fiber.Ctx) models.Draft {
	d := models.NewDraft()
	d.Cron = h.defaultCron

	for _, raw := range c.Request().PostArgs().PeekMulti("recipients") {
		d = models.Reduce(d, models.SetField{Field: models.FieldRecipientInput, Value: string(raw)})
		d = models.Reduce(d, models.AddRecipient{})
	}

	fields := []models.Field{
		models.FieldSubject,
		models.FieldFromEmail,
		models.FieldFromName,
		models.FieldRecipientInput,
		models.FieldPrompt,
		models.FieldCron,
	}
	for _, f := range fields {
		if !c.Request().PostArgs().Has(string(f)) {
			continue
		}
		d = models.Reduce(d, models.SetField{Field: f, Value: c.FormValue(string(f))})
	}
	return d
}

func (h *FormHandler) render(c *fiber.Ctx, d models.Draft) error {
	loc := localizerFrom(c)

	var token string
	if h.csrfToken != nil {
		token = h.csrfToken(c)
	}

	return c.Render("index", fiber.Map{
		"Draft":          d,
		"L":              utils.PageLabels(loc),
		"RecipientCount": utils.TPlural(loc, utils.MsgRecipientCount, len(d.Recipients)),
		"Lang":           c.Locals("lang"),
		"CSRFToken":      token,
	})
}

func localizerFrom(c *fiber.Ctx) *i18n.Localizer {
	if loc, ok := c.Locals("localizer").(*i18n.Localizer); ok {
		return loc
	}
	return nil
}
