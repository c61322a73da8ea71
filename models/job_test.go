package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaggeredJob_Progress(t *testing.T) {
	job := &StaggeredJob{Config: ScheduleRequest{Recipients: []string{"a@x.com", "b@x.com"}}}

	assert.False(t, job.Done())
	assert.Equal(t, "a@x.com", job.NextRecipient())

	job.NextIndex = 1
	assert.Equal(t, "b@x.com", job.NextRecipient())

	job.NextIndex = 2
	assert.True(t, job.Done())
	assert.Empty(t, job.NextRecipient())
}

func TestStaggeredJob_View(t *testing.T) {
	job := &StaggeredJob{
		ID:        "j1",
		Config:    ScheduleRequest{FromEmail: "a@b.com", Cron: "0 9 * * *", Recipients: []string{"x@y.com", "z@y.com"}},
		NextIndex: 1,
	}

	v := job.View(time.Time{})
	assert.Equal(t, 1, v.Remaining)
	assert.Nil(t, v.NextRun)

	next := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	v = job.View(next)
	if assert.NotNil(t, v.NextRun) {
		assert.True(t, next.Equal(*v.NextRun))
	}
}

func TestScheduleRequest_SenderName(t *testing.T) {
	assert.Empty(t, ScheduleRequest{}.SenderName())
	name := "Rad"
	assert.Equal(t, "Rad", ScheduleRequest{FromName: &name}.SenderName())
}
