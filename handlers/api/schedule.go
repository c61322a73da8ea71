package api

import (
	"context"
	"errors"
	"time"

	"staggermail/llm"
	"staggermail/mailer"
	"staggermail/models"
	"staggermail/scheduler"
	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// DefaultSendSubject is used by one-off sends without a subject.
	DefaultSendSubject = "Automated Email"

	scheduledMessage = "Staggered email job scheduled."
	msgNoRecipients  = "At least one recipient is required."
	msgInvalidCron   = "Invalid cron expression."

	defaultFirstSendTimeout = 30 * time.Second
)

// JobScheduler is the part of the scheduler the handlers drive.
type JobScheduler interface {
	Schedule(job *models.StaggeredJob) error
	RunJob(ctx context.Context, id string) error
	Cancel(id string) error
	NextRun(id string) time.Time
}

// JobHandler serves the scheduling and one-off send endpoints.
type JobHandler struct {
	store     scheduler.JobStore
	scheduler JobScheduler
	generator llm.Generator
	sender    mailer.Sender
	newID     func() string

	firstSendTimeout time.Duration
}

// HandlerOption configures a JobHandler.
type HandlerOption func(*JobHandler)

// WithFirstSendTimeout bounds the immediate send made while scheduling.
func WithFirstSendTimeout(d time.Duration) HandlerOption {
	return func(h *JobHandler) {
		if d > 0 {
			h.firstSendTimeout = d
		}
	}
}

// NewJobHandler creates a new job handler
func NewJobHandler(store scheduler.JobStore, sched JobScheduler, gen llm.Generator, sender mailer.Sender, opts ...HandlerOption) *JobHandler {
	h := &JobHandler{
		store:            store,
		scheduler:        sched,
		generator:        gen,
		sender:           sender,
		newID:            func() string { return uuid.New().String() },
		firstSendTimeout: defaultFirstSendTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleSchedule accepts a staggered job: the email is generated once,
// sent to the first recipient right away and to one more recipient per cron tick.
func (h *JobHandler) HandleSchedule(c *fiber.Ctx) error {
	var req models.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.UnprocessableError("Invalid request body", err)
	}

	req.FromEmail = utils.NormalizeEmail(req.FromEmail)
	if errs := validateMessage(req.FromEmail, req.Recipients, req.Prompt); len(errs) > 0 {
		return errs.Respond(c)
	}
	if len(req.Recipients) == 0 {
		return utils.BadRequestError(msgNoRecipients, nil)
	}
	req.Recipients = normalizeRecipients(req.Recipients)

	if _, err := scheduler.ParseCron(req.Cron); err != nil {
		return utils.BadRequestError(msgInvalidCron, err).WithContext("cron", req.Cron)
	}

	body, err := h.generator.GenerateEmail(c.UserContext(), req.Prompt)
	if err != nil {
		return utils.InternalServerError("Failed to generate email: "+err.Error(), err)
	}

	job := &models.StaggeredJob{
		ID:        h.newID(),
		Config:    req,
		EmailBody: body,
	}
	log := utils.Log.WithField("job", job.ID)

	if err := h.store.SaveJob(job); err != nil {
		return utils.InternalServerError("Failed to store job", err)
	}
	if err := h.scheduler.Schedule(job); err != nil {
		_ = h.store.DeleteJob(job.ID)
		if errors.Is(err, scheduler.ErrInvalidCron) {
			return utils.BadRequestError(msgInvalidCron, err)
		}
		return utils.InternalServerError("Failed to schedule job", err)
	}
	log.Info("Scheduled %d recipient(s) on %q", len(req.Recipients), req.Cron)

	// The first recipient is sent to immediately; a failure is retried on the next tick.
	sendCtx, cancel := context.WithTimeout(c.UserContext(), h.firstSendTimeout)
	defer cancel()
	if err := h.scheduler.RunJob(sendCtx, job.ID); err != nil {
		log.Warn("First send failed, will retry on schedule: %v", err)
	}

	return c.JSON(models.ScheduleResponse{JobID: job.ID, Message: scheduledMessage})
}

// HandleSend generates one email and sends it to every recipient at once.
func (h *JobHandler) HandleSend(c *fiber.Ctx) error {
	var req models.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.UnprocessableError("Invalid request body", err)
	}

	req.FromEmail = utils.NormalizeEmail(req.FromEmail)
	if errs := validateMessage(req.FromEmail, req.Recipients, req.Prompt); len(errs) > 0 {
		return errs.Respond(c)
	}
	if len(req.Recipients) == 0 {
		return utils.BadRequestError(msgNoRecipients, nil)
	}
	req.Recipients = normalizeRecipients(req.Recipients)

	subject := req.Subject
	if subject == "" {
		subject = DefaultSendSubject
	}

	body, err := h.generator.GenerateEmail(c.UserContext(), req.Prompt)
	if err != nil {
		return utils.InternalServerError(err.Error(), err)
	}

	var fromName string
	if req.FromName != nil {
		fromName = *req.FromName
	}
	err = h.sender.Send(c.UserContext(), mailer.Message{
		FromName: fromName,
		To:       req.Recipients,
		Subject:  subject,
		Body:     body,
	})
	if err != nil {
		return utils.InternalServerError(err.Error(), err)
	}

	utils.Log.Info("Email sent successfully: to=%d recipient(s) subject=%s", len(req.Recipients), subject)

	return c.JSON(models.SendResponse{
		Status:     "sent",
		Subject:    subject,
		Body:       body,
		Recipients: req.Recipients,
	})
}
