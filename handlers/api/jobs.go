package api

import (
	"errors"

	"staggermail/models"
	"staggermail/storage"
	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
)

// ListJobs returns every active job, oldest first.
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	jobs, err := h.store.ListJobs()
	if err != nil {
		return utils.InternalServerError("Failed to list jobs", err)
	}

	views := make([]models.JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, job.View(h.scheduler.NextRun(job.ID)))
	}
	return c.JSON(fiber.Map{"jobs": views})
}

// GetJob returns one job with its next run time.
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	id := c.Params("id")
	job, err := h.store.GetJob(id)
	if errors.Is(err, storage.ErrJobNotFound) {
		return utils.NotFoundError("Job not found.", err).WithContext("job", id)
	}
	if err != nil {
		return utils.InternalServerError("Failed to load job", err)
	}
	return c.JSON(job.View(h.scheduler.NextRun(id)))
}

// CancelJob unschedules and deletes a job.
func (h *JobHandler) CancelJob(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.scheduler.Cancel(id)
	if errors.Is(err, storage.ErrJobNotFound) {
		return utils.NotFoundError("Job not found.", err).WithContext("job", id)
	}
	if err != nil {
		return utils.InternalServerError("Failed to cancel job", err)
	}
	return c.JSON(fiber.Map{"job_id": id, "message": "Job cancelled."})
}
