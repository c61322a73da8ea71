package middleware

import (
	"errors"
	"strings"

	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

var apiPrefixes = []string{
	"/schedule-staggered-email-job",
	"/generate-and-send-email",
	"/jobs",
	"/events",
	"/ws/",
	"/health",
	"/api/",
}

// IsAPIRequest reports whether the response should be JSON rather than a page.
func IsAPIRequest(c *fiber.Ctx) bool {
	if c == nil {
		return false
	}
	path := c.Path()
	for _, p := range apiPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return !strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}

// ErrorHandler renders errors as {"detail": ...} for API requests and as the
// error page otherwise.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	if appErr, ok := utils.AsAppError(err); ok {
		code = appErr.Code
		message = appErr.Message
		if code >= fiber.StatusInternalServerError {
			utils.Log.WithFields(appErr.Context).Error("Application error: %v", appErr)
		} else {
			utils.Log.WithFields(appErr.Context).Debug("Request rejected: %v", appErr)
		}
	} else {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			utils.Log.Error("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		}
	}

	if IsAPIRequest(c) {
		return c.Status(code).JSON(fiber.Map{"detail": message})
	}

	loc, _ := c.Locals("localizer").(*i18n.Localizer)
	return c.Status(code).Render("error", fiber.Map{
		"Error": message,
		"Code":  code,
		"L":     utils.PageLabels(loc),
		"Lang":  c.Locals("lang"),
	})
}

// NotFound is the catch-all handler for undefined routes.
func NotFound(c *fiber.Ctx) error {
	loc, _ := c.Locals("localizer").(*i18n.Localizer)
	return utils.NotFoundError(utils.T(loc, utils.MsgNotFound), nil)
}
