package discord

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/copilot-bot/copilot/internal/event"
)

type webhookRecorder struct {
	mu     sync.Mutex
	fields []string
	status int
}

func (r *webhookRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v := req.FormValue("content"); v != "" {
		r.fields = append(r.fields, v)
	}
	if v := req.FormValue("payload_json"); v != "" {
		r.fields = append(r.fields, v)
	}
	if r.status != 0 {
		w.WriteHeader(r.status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *webhookRecorder) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fields...)
}

type fakeController struct {
	enabled bool
	err     error
}

func (c *fakeController) Summary() string { return "following Leader" }

func (c *fakeController) SetAutopilot(enabled bool) error {
	if c.err != nil {
		return c.err
	}
	c.enabled = enabled
	return nil
}

func newWebhookBot(t *testing.T, rec *webhookRecorder, taskMessages bool) *Bot {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	b, err := NewBot(Options{UseWebhook: true, WebhookURL: srv.URL, EnableTaskMessages: taskMessages}, &fakeController{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b
}

func TestHandlePublishesEvents(t *testing.T) {
	rec := &webhookRecorder{}
	b := newWebhookBot(t, rec, false)
	ctx := context.Background()

	events := []event.Event{
		event.LeaderZoneChanged(event.Text("follower", "Leader changed zone"), "Leader", "The Coast", "The Mud Flats"),
		event.LeaderLost(event.Text("follower", "Leader lost"), "Leader"),
		event.ZoneLoaded(event.Text("follower", "Zone loaded"), "The Coast", true),
		event.TaskAbandoned(event.Text("follower", "Task abandoned"), "Movement", 10, "attempt ceiling reached"),
	}
	for _, e := range events {
		if err := b.Handle(ctx, e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got := rec.received()
	if len(got) != 2 {
		t.Fatalf("expected 2 published messages, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0], "The Mud Flats") || !strings.Contains(got[0], "embeds") {
		t.Errorf("expected a zone change embed, got %s", got[0])
	}
	if got[1] != "**[follower]** Leader lost" {
		t.Errorf("unexpected message %q", got[1])
	}
}

func TestHandleTaskMessages(t *testing.T) {
	rec := &webhookRecorder{}
	b := newWebhookBot(t, rec, true)

	err := b.Handle(context.Background(), event.TaskAbandoned(event.Text("follower", "Task abandoned"), "Transition", 6, "attempt ceiling reached"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := rec.received()
	if len(got) != 1 || !strings.Contains(got[0], "Transition task abandoned") {
		t.Errorf("expected an abandoned task embed, got %v", got)
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	rec := &webhookRecorder{status: http.StatusTooManyRequests}
	b := newWebhookBot(t, rec, false)

	err := b.Handle(context.Background(), event.NgrokTunnel("https://example.ngrok.app"))
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected the webhook status in the error, got %v", err)
	}
}

func TestNewBotRequiresWebhookURL(t *testing.T) {
	if _, err := NewBot(Options{UseWebhook: true}, &fakeController{}); err == nil {
		t.Errorf("expected an error without a webhook URL")
	}
}

func TestCommands(t *testing.T) {
	ctrl := &fakeController{}
	b := &Bot{controller: ctrl}

	if got := b.command("!status"); got != "following Leader" {
		t.Errorf("unexpected status reply %q", got)
	}
	b.command("!start")
	if !ctrl.enabled {
		t.Errorf("expected !start to enable the autopilot")
	}
	b.command("!stop")
	if ctrl.enabled {
		t.Errorf("expected !stop to disable the autopilot")
	}
	if got := b.command("!dance"); !strings.Contains(got, "Unknown command") {
		t.Errorf("unexpected reply %q", got)
	}

	ctrl.err = errors.New("settings are read-only")
	if got := b.command("!start"); !strings.Contains(got, "settings are read-only") {
		t.Errorf("expected the error in the reply, got %q", got)
	}
}
