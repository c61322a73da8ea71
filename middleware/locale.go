package middleware

import (
	"strings"

	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"
)

var matcher = newMatcher()

func newMatcher() language.Matcher {
	tags := make([]language.Tag, 0, len(utils.SupportedLanguages))
	for _, lang := range utils.SupportedLanguages {
		tags = append(tags, language.Make(lang))
	}
	return language.NewMatcher(tags)
}

// DetectLanguage picks a supported language from the query, the "lang"
// cookie, then Accept-Language, defaulting to English.
func DetectLanguage(c *fiber.Ctx) string {
	for _, candidate := range []string{c.Query("lang"), c.Cookies("lang")} {
		if isSupported(candidate) {
			return candidate
		}
	}

	if accept := c.Get(fiber.HeaderAcceptLanguage); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return utils.SupportedLanguages[idx]
			}
		}
	}
	return "en"
}

// LocaleMiddleware detects and sets the user's locale
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := DetectLanguage(c)

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		utils.Log.Debug("Locale detected: %s for path: %s", lang, c.Path())

		return c.Next()
	}
}

func isSupported(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return false
	}
	for _, l := range utils.SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
