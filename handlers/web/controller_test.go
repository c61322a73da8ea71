package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"staggermail/client"
	"staggermail/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	calls int
	got   models.ScheduleRequest
	res   *models.ScheduleResponse
	err   error
	panic bool
}

func (s *stubBackend) ScheduleStaggered(_ context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error) {
	s.calls++
	s.got = req
	if s.panic {
		panic("boom")
	}
	return s.res, s.err
}

func filledDraft() models.Draft {
	d := models.NewDraft()
	d = models.Reduce(d, models.SetField{Field: models.FieldFromEmail, Value: "a@b.com"})
	d = models.Reduce(d, models.SetField{Field: models.FieldRecipientInput, Value: "c@d.com"})
	d = models.Reduce(d, models.AddRecipient{})
	d = models.Reduce(d, models.SetField{Field: models.FieldPrompt, Value: "hi"})
	return d
}

func TestSubmit_Success(t *testing.T) {
	backend := &stubBackend{res: &models.ScheduleResponse{JobID: "123"}}
	var seen []models.Draft
	ctrl := NewController(backend, func(d models.Draft) { seen = append(seen, d) })

	out := ctrl.Submit(context.Background(), filledDraft())

	assert.Equal(t, "Job scheduled! Job ID: 123", out.Status)
	assert.False(t, out.Loading)
	assert.Equal(t, 1, backend.calls)
	assert.Nil(t, backend.got.FromName)
	assert.Equal(t, []string{"c@d.com"}, backend.got.Recipients)
	assert.Equal(t, models.DefaultCron, backend.got.Cron)

	require.Len(t, seen, 3)
	assert.True(t, seen[0].Loading)
	assert.Empty(t, seen[0].Status)
	assert.True(t, seen[1].Loading)
	assert.False(t, seen[2].Loading)
}

func TestSubmit_MissingFields(t *testing.T) {
	backend := &stubBackend{}
	ctrl := NewController(backend, nil)

	cases := map[string]models.Draft{
		"empty":         models.NewDraft(),
		"no recipients": models.Reduce(filledDraft(), models.RemoveRecipient{Email: "c@d.com"}),
		"no prompt":     models.Reduce(filledDraft(), models.SetField{Field: models.FieldPrompt, Value: ""}),
		"no from email": models.Reduce(filledDraft(), models.SetField{Field: models.FieldFromEmail, Value: ""}),
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			out := ctrl.Submit(context.Background(), d)
			assert.Equal(t, "Please fill in From Email, at least one recipient, and a prompt.", out.Status)
			assert.False(t, out.Loading)
		})
	}
	assert.Zero(t, backend.calls)
}

func TestSubmit_BackendFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"detail", &client.APIError{StatusCode: 400, Detail: "bad cron"}, "Error: bad cron"},
		{"no detail", &client.APIError{StatusCode: 500}, "Error: Failed to schedule email job"},
		{"transport", &client.TransportError{Err: errors.New("connection refused")}, "Error: connection refused"},
		{"empty transport", &client.TransportError{Err: errors.New("")}, "Error: Something went wrong."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewController(&stubBackend{err: tt.err}, nil)
			out := ctrl.Submit(context.Background(), filledDraft())
			assert.Equal(t, tt.want, out.Status)
			assert.False(t, out.Loading)
		})
	}
}

func TestSubmit_PanicReleasesLoading(t *testing.T) {
	ctrl := NewController(&stubBackend{panic: true}, nil)
	out := ctrl.Submit(context.Background(), filledDraft())
	assert.False(t, out.Loading)
	assert.Equal(t, "Error: Something went wrong.", out.Status)
}

func TestSubmit_AgainstHTTPBackend(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"accepted", http.StatusOK, `{"job_id":"123"}`, "Job scheduled! Job ID: 123"},
		{"numeric job id", http.StatusOK, `{"job_id":123}`, "Job scheduled! Job ID: 123"},
		{"rejected", http.StatusBadRequest, `{"detail":"bad cron"}`, "Error: bad cron"},
		{"rejected without detail", http.StatusInternalServerError, `{}`, "Error: Failed to schedule email job"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out := NewController(client.New(srv.URL), nil).Submit(context.Background(), filledDraft())
			assert.Equal(t, tt.want, out.Status)
			assert.False(t, out.Loading)
		})
	}

	t.Run("html gateway error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer srv.Close()

		out := NewController(client.New(srv.URL), nil).Submit(context.Background(), filledDraft())
		assert.True(t, strings.HasPrefix(out.Status, "Error: decode response: "), out.Status)
		assert.False(t, out.Loading)
	})

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		out := NewController(client.New(url), nil).Submit(context.Background(), filledDraft())
		assert.Contains(t, out.Status, "Error: ")
		assert.NotEqual(t, "Error: ", out.Status)
		assert.False(t, out.Loading)
	})
}
