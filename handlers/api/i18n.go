package api

import (
	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
)

// I18nHandler handles i18n-related requests
type I18nHandler struct{}

// GetTranslations returns the page copy and status messages for the client-side script
func (h *I18nHandler) GetTranslations(c *fiber.Ctx) error {
	lang := c.Params("lang")
	supported := false
	for _, l := range utils.SupportedLanguages {
		if l == lang {
			supported = true
			break
		}
	}
	if !supported {
		lang = "en"
	}

	localizer := utils.GetLocalizer(lang)

	translations := utils.PageLabels(localizer)
	translations["status_missing_fields"] = utils.T(localizer, utils.MsgMissingFields)
	translations["error_schedule_failed"] = utils.T(localizer, utils.MsgScheduleFailed)
	translations["error_generic"] = utils.T(localizer, utils.MsgSomethingWrong)
	translations["error_rate_limited"] = utils.T(localizer, utils.MsgRateLimited)

	return c.JSON(fiber.Map{"lang": lang, "messages": translations})
}

// Health reports that the server is up.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
