package web

import (
	"context"
	"errors"

	"staggermail/client"
	"staggermail/models"
	"staggermail/utils"

	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// Scheduler submits a scheduling request to the backend.
type Scheduler interface {
	ScheduleStaggered(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error)
}

// Observer receives every intermediate draft produced during a submit.
type Observer func(models.Draft)

// Controller drives the submit flow of the form.
type Controller struct {
	backend   Scheduler
	observer  Observer
	localizer *i18n.Localizer
}

// NewController creates a controller that submits through backend.
func NewController(backend Scheduler, observer Observer) *Controller {
	return &Controller{backend: backend, observer: observer}
}

// WithLocalizer returns a copy of the controller that writes status
// messages in the localizer's language.
func (c *Controller) WithLocalizer(loc *i18n.Localizer) *Controller {
	cp := *c
	cp.localizer = loc
	return &cp
}

// Apply runs one reducer step and notifies the observer.
func (c *Controller) Apply(d models.Draft, a models.Action) models.Draft {
	d = models.Reduce(d, a)
	if c.observer != nil {
		c.observer(d)
	}
	return d
}

// Submit validates d, posts it to the backend and returns the resulting draft.
// Loading is set for the duration of the request and always released on return,
// including when the backend call panics.
func (c *Controller) Submit(ctx context.Context, d models.Draft) (out models.Draft) {
	if missing := d.Missing(); len(missing) > 0 {
		utils.Log.Debug("Submit rejected, missing fields: %v", missing)
		return c.Apply(d, models.RejectSubmit{Message: utils.T(c.localizer, utils.MsgMissingFields)})
	}

	out = c.Apply(d, models.BeginSubmit{})
	defer func() {
		if r := recover(); r != nil {
			utils.Log.Error("Submit panicked: %v", r)
			out = c.Apply(out, models.ResolveFailure{Message: c.errorStatus("")})
		}
		out = c.Apply(out, models.EndSubmit{})
	}()

	res, err := c.backend.ScheduleStaggered(ctx, out.Payload())
	if err != nil {
		utils.Log.Warn("Schedule request failed: %v", err)
		return c.Apply(out, models.ResolveFailure{Message: c.failureStatus(err)})
	}

	utils.Log.WithField("job", res.JobID).Info("Scheduled job for %d recipient(s)", len(out.Recipients))
	msg := utils.TWithData(c.localizer, utils.MsgJobScheduled, map[string]interface{}{"JobID": res.JobID})
	return c.Apply(out, models.ResolveSuccess{JobID: res.JobID, Message: msg})
}

func (c *Controller) failureStatus(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		detail := apiErr.Detail
		if detail == "" {
			detail = utils.T(c.localizer, utils.MsgScheduleFailed)
		}
		return c.errorStatus(detail)
	}
	return c.errorStatus(err.Error())
}

// errorStatus formats "Error: <message>", substituting the generic text for an empty message.
func (c *Controller) errorStatus(message string) string {
	if message == "" {
		message = utils.T(c.localizer, utils.MsgSomethingWrong)
	}
	return utils.TWithData(c.localizer, utils.MsgError, map[string]interface{}{"Message": message})
}

