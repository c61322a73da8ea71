package api

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"staggermail/events"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSSE_StreamsJobEvents(t *testing.T) {
	hub := events.NewHub(8)
	app := fiber.New()
	app.Get("/events", NewEventsHandler(hub).HandleSSE)

	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for hub.Subscribers() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		hub.Publish(events.Event{Type: events.JobScheduled, JobID: "other"})
		hub.Publish(events.Event{Type: events.RecipientSent, JobID: "j1", Recipient: "c@d.com", Total: 2})
		hub.Close()
	}()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/events?job=j1", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.True(t, strings.HasPrefix(body, ": connected\n\n"), body)
	assert.Contains(t, body, "event: recipient_sent\n")
	assert.Contains(t, body, `"recipient":"c@d.com"`)
	assert.NotContains(t, body, `"job_id":"other"`)
	assert.Zero(t, hub.Subscribers())
}

func TestHandleWebSocket_StreamsJobEvents(t *testing.T) {
	hub := events.NewHub(8)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws/events", UpgradeWebSocket, websocket.New(NewEventsHandler(hub).HandleWebSocket))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fastws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/events?job=j1", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Publish(events.Event{Type: events.JobScheduled, JobID: "other"})
	hub.Publish(events.Event{Type: events.RecipientSent, JobID: "j1", Recipient: "c@d.com", Total: 2})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.RecipientSent, ev.Type)
	assert.Equal(t, "j1", ev.JobID)
	assert.Equal(t, "c@d.com", ev.Recipient)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
