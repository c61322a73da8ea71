package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishStampsAndDelivers(t *testing.T) {
	h := NewHub(4)
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish(Event{Type: RecipientSent, JobID: "j1", Recipient: "c@d.com", Index: 0, Total: 2})

	for _, ch := range []chan Event{a, b} {
		e := <-ch
		assert.Equal(t, RecipientSent, e.Type)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.At.IsZero())
	}
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub(1)
	ch := h.Subscribe()

	h.Publish(Event{Type: JobScheduled})
	h.Publish(Event{Type: JobCompleted})

	assert.Equal(t, JobScheduled, (<-ch).Type)
	assert.Len(t, ch, 0)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(1)
	ch := h.Subscribe()
	h.Unsubscribe(ch)
	h.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers())

	h.Publish(Event{Type: JobCompleted})
}

func TestHub_Close(t *testing.T) {
	h := NewHub(4)
	ch := h.Subscribe()
	h.Publish(Event{Type: JobScheduled, JobID: "j1"})

	h.Close()
	assert.Zero(t, h.Subscribers())

	e, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, "j1", e.JobID)
	_, ok = <-ch
	assert.False(t, ok)

	late := h.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
	h.Unsubscribe(ch)
	h.Publish(Event{Type: JobCancelled, JobID: "j1"})
}

func TestEvent_JSON(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(Event{Type: SendFailed, JobID: "j", Error: "x"}.JSON(), &decoded))
	assert.Equal(t, "send_failed", decoded["type"])
	assert.Equal(t, "j", decoded["job_id"])
	assert.Equal(t, "x", decoded["error"])
}
