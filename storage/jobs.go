package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"staggermail/models"

	"go.etcd.io/bbolt"
)

// ErrJobNotFound is returned when no job is stored under the requested ID.
var ErrJobNotFound = errors.New("job not found")

// JobStorage persists staggered jobs in bbolt, one JSON document per job
type JobStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewJobStorage wraps an initialised database
func NewJobStorage(db *bbolt.DB) *JobStorage {
	return &JobStorage{db: db, now: time.Now}
}

// OpenJobStorage initialises the database in dataDir and wraps it
func OpenJobStorage(dataDir string) (*JobStorage, error) {
	db, err := InitDB(dataDir)
	if err != nil {
		return nil, err
	}
	return NewJobStorage(db), nil
}

// Close closes the database connection
func (s *JobStorage) Close() error {
	return s.db.Close()
}

// SaveJob creates or replaces job, stamping its timestamps
func (s *JobStorage) SaveJob(job *models.StaggeredJob) error {
	if job.ID == "" {
		return errors.New("job id is required")
	}
	now := s.now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJob(tx.Bucket([]byte(jobsBucket)), job)
	})
}

// GetJob retrieves a job by ID
func (s *JobStorage) GetJob(id string) (*models.StaggeredJob, error) {
	var job *models.StaggeredJob
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		job, err = getJob(tx.Bucket([]byte(jobsBucket)), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns every stored job, oldest first
func (s *JobStorage) ListJobs() ([]*models.StaggeredJob, error) {
	var jobs []*models.StaggeredJob

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(jobsBucket)).ForEach(func(k, v []byte) error {
			var job models.StaggeredJob
			if err := json.Unmarshal(v, &job); err != nil {
				return fmt.Errorf("decode job %s: %w", k, err)
			}
			jobs = append(jobs, &job)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// DeleteJob removes a job. Deleting a missing job returns ErrJobNotFound.
func (s *JobStorage) DeleteJob(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(jobsBucket))
		if b.Get([]byte(id)) == nil {
			return ErrJobNotFound
		}
		return b.Delete([]byte(id))
	})
}

// AdvanceJob records the outcome of one run in a single transaction.
// A nil sendErr moves NextIndex forward by one and clears LastError;
// otherwise the index stays put and LastError is set.
func (s *JobStorage) AdvanceJob(id string, sendErr error) (*models.StaggeredJob, error) {
	var job *models.StaggeredJob

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(jobsBucket))

		var err error
		job, err = getJob(b, id)
		if err != nil {
			return err
		}

		if sendErr != nil {
			job.LastError = sendErr.Error()
		} else {
			job.NextIndex++
			job.LastError = ""
		}
		job.UpdatedAt = s.now()

		return putJob(b, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func getJob(b *bbolt.Bucket, id string) (*models.StaggeredJob, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return nil, ErrJobNotFound
	}
	var job models.StaggeredJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func putJob(b *bbolt.Bucket, job *models.StaggeredJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return b.Put([]byte(job.ID), data)
}
