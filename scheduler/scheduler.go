// Package scheduler runs staggered email jobs: every cron tick sends the
// stored email to the next recipient until the list is exhausted.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"staggermail/events"
	"staggermail/mailer"
	"staggermail/models"
	"staggermail/storage"
	"staggermail/utils"

	"github.com/robfig/cron/v3"
)

// DefaultSubject is used when a job was scheduled without a subject.
const DefaultSubject = "Automated Scheduled Email"

// ErrInvalidCron is returned for expressions the standard parser rejects.
var ErrInvalidCron = errors.New("invalid cron expression")

// JobStore is the persistence the scheduler needs.
type JobStore interface {
	SaveJob(job *models.StaggeredJob) error
	GetJob(id string) (*models.StaggeredJob, error)
	ListJobs() ([]*models.StaggeredJob, error)
	DeleteJob(id string) error
	AdvanceJob(id string, sendErr error) (*models.StaggeredJob, error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger replaces the global logger.
func WithLogger(l *utils.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithRunTimeout bounds a single send.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.runTimeout = d }
}

// Scheduler owns the cron entries for every active job.
type Scheduler struct {
	cron   *cron.Cron
	store  JobStore
	sender mailer.Sender
	events events.Publisher
	log    *utils.Logger

	runTimeout time.Duration

	mu      sync.Mutex
	entries map[string]cron.EntryID
	locks   map[string]*sync.Mutex
}

// New creates a scheduler. Call Start to begin firing entries.
func New(store JobStore, sender mailer.Sender, pub events.Publisher, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:      store,
		sender:     sender,
		events:     pub,
		log:        utils.Log,
		runTimeout: 2 * time.Minute,
		entries:    make(map[string]cron.EntryID),
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = events.NewHub(0)
	}

	logger := utils.CronLogger{L: s.log}
	s.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return s
}

// ParseCron validates a five-field cron expression (descriptors like @hourly are accepted too).
func ParseCron(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCron, err)
	}
	return sched, nil
}

// Start begins firing entries in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started with %d job(s)", s.Len())
}

// Stop halts new runs; the returned context is done once running sends finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Scheduler stopping")
	return s.cron.Stop()
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Schedule registers a cron entry for an already persisted job.
func (s *Scheduler) Schedule(job *models.StaggeredJob) error {
	sched, err := ParseCron(job.Config.Cron)
	if err != nil {
		return err
	}

	id := job.ID
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[id]; ok {
		s.cron.Remove(old)
	}
	s.entries[id] = s.cron.Schedule(sched, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		_ = s.RunJob(ctx, id)
	}))

	s.events.Publish(events.Event{
		Type:  events.JobScheduled,
		JobID: id,
		Index: job.NextIndex,
		Total: len(job.Config.Recipients),
	})
	return nil
}

// NextRun reports when the job fires next, or the zero time if it is not scheduled.
func (s *Scheduler) NextRun(id string) time.Time {
	s.mu.Lock()
	eid, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}

	entry := s.cron.Entry(eid)
	if !entry.Valid() {
		return time.Time{}
	}
	if !entry.Next.IsZero() {
		return entry.Next
	}
	return entry.Schedule.Next(time.Now())
}

// RunJob performs one staggered step for id: send to the next recipient and
// advance, or clean up if everyone has been sent to. A failed send leaves the
// index unchanged so the next tick retries the same recipient.
func (s *Scheduler) RunJob(ctx context.Context, id string) error {
	lock := s.jobLock(id)
	lock.Lock()
	defer lock.Unlock()

	log := s.log.WithField("job", id)

	job, err := s.store.GetJob(id)
	if errors.Is(err, storage.ErrJobNotFound) {
		log.Info("Job not found (maybe already finished), unscheduling")
		s.unschedule(id)
		return nil
	}
	if err != nil {
		log.Error("Failed to load job: %v", err)
		return err
	}

	if job.Done() {
		s.finish(job)
		return nil
	}

	index := job.NextIndex
	recipient := job.NextRecipient()
	subject := job.Config.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	sendErr := s.sender.Send(ctx, mailer.Message{
		FromName: job.Config.SenderName(),
		To:       []string{recipient},
		Subject:  subject,
		Body:     job.EmailBody,
	})

	updated, err := s.store.AdvanceJob(id, sendErr)
	if err != nil {
		log.Error("Failed to record run (send error: %v): %v", sendErr, err)
		return err
	}

	total := len(job.Config.Recipients)
	if sendErr != nil {
		log.Warn("Send to %s (index %d) failed: %v", recipient, index, sendErr)
		s.events.Publish(events.Event{
			Type:      events.SendFailed,
			JobID:     id,
			Recipient: recipient,
			Index:     index,
			Total:     total,
			Error:     sendErr.Error(),
		})
		return sendErr
	}

	log.Info("Sent to %s (index %d of %d)", recipient, index, total)
	s.events.Publish(events.Event{
		Type:      events.RecipientSent,
		JobID:     id,
		Recipient: recipient,
		Index:     index,
		Total:     total,
	})

	if updated.Done() {
		s.finish(updated)
	}
	return nil
}

// Cancel unschedules and deletes a job.
func (s *Scheduler) Cancel(id string) error {
	if err := s.store.DeleteJob(id); err != nil {
		return err
	}
	s.unschedule(id)

	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	s.events.Publish(events.Event{Type: events.JobCancelled, JobID: id})
	s.log.WithField("job", id).Info("Job cancelled")
	return nil
}

// Restore schedules every persisted job that still has recipients left.
// Finished jobs are deleted; jobs with an unparsable schedule are skipped.
func (s *Scheduler) Restore() (int, error) {
	jobs, err := s.store.ListJobs()
	if err != nil {
		return 0, fmt.Errorf("list jobs: %w", err)
	}

	restored := 0
	for _, job := range jobs {
		if job.Done() {
			if err := s.store.DeleteJob(job.ID); err != nil && !errors.Is(err, storage.ErrJobNotFound) {
				s.log.Warn("Failed to delete finished job %s: %v", job.ID, err)
			}
			continue
		}
		if err := s.Schedule(job); err != nil {
			s.log.Warn("Skipping job %s: %v", job.ID, err)
			continue
		}
		restored++
	}
	return restored, nil
}

func (s *Scheduler) finish(job *models.StaggeredJob) {
	s.unschedule(job.ID)
	if err := s.store.DeleteJob(job.ID); err != nil && !errors.Is(err, storage.ErrJobNotFound) {
		s.log.Warn("Failed to delete finished job %s: %v", job.ID, err)
	}

	s.mu.Lock()
	delete(s.locks, job.ID)
	s.mu.Unlock()

	s.log.WithField("job", job.ID).Info("Completed all %d recipient(s)", len(job.Config.Recipients))
	s.events.Publish(events.Event{
		Type:  events.JobCompleted,
		JobID: job.ID,
		Index: job.NextIndex,
		Total: len(job.Config.Recipients),
	})
}

func (s *Scheduler) unschedule(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eid, ok := s.entries[id]; ok {
		s.cron.Remove(eid)
		delete(s.entries, id)
	}
}

func (s *Scheduler) jobLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}
