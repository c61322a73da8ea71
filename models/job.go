package models

import "time"

// ScheduleRequest is the body of POST /schedule-staggered-email-job.
type ScheduleRequest struct {
	FromEmail  string   `json:"from_email"`
	FromName   *string  `json:"from_name"`
	Subject    string   `json:"subject"`
	Recipients []string `json:"recipients"`
	Prompt     string   `json:"prompt"`
	Cron       string   `json:"cron"`
}

// SenderName returns the display name, or "" when none was given.
func (r ScheduleRequest) SenderName() string {
	if r.FromName == nil {
		return ""
	}
	return *r.FromName
}

// ScheduleResponse is returned once a staggered job has been accepted.
type ScheduleResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

// SendRequest is the body of POST /generate-and-send-email.
type SendRequest struct {
	FromEmail  string   `json:"from_email"`
	FromName   *string  `json:"from_name"`
	Subject    string   `json:"subject"`
	Recipients []string `json:"recipients"`
	Prompt     string   `json:"prompt"`
}

// SendResponse reports a completed one-off send.
type SendResponse struct {
	Status     string   `json:"status"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// ErrorResponse is the failure body shared by every API endpoint.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StaggeredJob is a scheduled job as persisted by the backend.
// NextIndex points at the recipient that receives the next run.
type StaggeredJob struct {
	ID        string          `json:"id"`
	Config    ScheduleRequest `json:"config"`
	EmailBody string          `json:"email_body"`
	NextIndex int             `json:"next_index"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Done reports whether every recipient has been sent to.
func (j *StaggeredJob) Done() bool {
	return j.NextIndex >= len(j.Config.Recipients)
}

// NextRecipient returns the recipient for the next run, or "" when done.
func (j *StaggeredJob) NextRecipient() string {
	if j.Done() {
		return ""
	}
	return j.Config.Recipients[j.NextIndex]
}

// JobView is the admin representation of a scheduled job.
type JobView struct {
	ID         string     `json:"id"`
	FromEmail  string     `json:"from_email"`
	Subject    string     `json:"subject"`
	Cron       string     `json:"cron"`
	Recipients []string   `json:"recipients"`
	NextIndex  int        `json:"next_index"`
	Remaining  int        `json:"remaining"`
	LastError  string     `json:"last_error,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// View builds the admin representation of j.
func (j *StaggeredJob) View(nextRun time.Time) JobView {
	v := JobView{
		ID:         j.ID,
		FromEmail:  j.Config.FromEmail,
		Subject:    j.Config.Subject,
		Cron:       j.Config.Cron,
		Recipients: j.Config.Recipients,
		NextIndex:  j.NextIndex,
		Remaining:  len(j.Config.Recipients) - j.NextIndex,
		LastError:  j.LastError,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
	if v.Remaining < 0 {
		v.Remaining = 0
	}
	if !nextRun.IsZero() {
		v.NextRun = &nextRun
	}
	return v
}
