package storage

import (
	"errors"
	"testing"
	"time"

	"staggermail/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *JobStorage {
	t.Helper()
	s, err := OpenJobStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleJob(id string) *models.StaggeredJob {
	return &models.StaggeredJob{
		ID: id,
		Config: models.ScheduleRequest{
			FromEmail:  "a@b.com",
			Recipients: []string{"c@d.com", "e@f.com"},
			Prompt:     "hello",
			Cron:       "*/2 * * * *",
		},
		EmailBody: "Hi there",
	}
}

func TestJobStorage_SaveGet(t *testing.T) {
	s := newTestStorage(t)

	job := sampleJob("j1")
	require.NoError(t, s.SaveJob(job))
	assert.False(t, job.CreatedAt.IsZero())

	got, err := s.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, job.Config, got.Config)
	assert.Equal(t, "Hi there", got.EmailBody)
	assert.Equal(t, 0, got.NextIndex)
}

func TestJobStorage_GetMissing(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetJob("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, s.DeleteJob("nope"), ErrJobNotFound)
	_, err = s.AdvanceJob("nope", nil)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobStorage_ListOldestFirst(t *testing.T) {
	s := newTestStorage(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"zzz", "aaa", "mmm"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		require.NoError(t, s.SaveJob(sampleJob(id)))
	}

	jobs, err := s.ListJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "zzz", jobs[0].ID)
	assert.Equal(t, "aaa", jobs[1].ID)
	assert.Equal(t, "mmm", jobs[2].ID)
}

func TestJobStorage_Advance(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveJob(sampleJob("j1")))

	job, err := s.AdvanceJob("j1", errors.New("smtp down"))
	require.NoError(t, err)
	assert.Equal(t, 0, job.NextIndex)
	assert.Equal(t, "smtp down", job.LastError)

	job, err = s.AdvanceJob("j1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, job.NextIndex)
	assert.Empty(t, job.LastError)

	stored, err := s.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.NextIndex)
}

func TestJobStorage_Delete(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveJob(sampleJob("j1")))

	require.NoError(t, s.DeleteJob("j1"))
	_, err := s.GetJob("j1")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobStorage_SaveRequiresID(t *testing.T) {
	s := newTestStorage(t)
	assert.Error(t, s.SaveJob(&models.StaggeredJob{}))
}
