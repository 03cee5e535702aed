package notify

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/softtechniques/softbot/internal/scheduling"
)

type mockMailer struct {
	mu       sync.Mutex
	sent     int
	to       []string
	subject  string
	body     string
	notified chan struct{}
}

func newMockMailer() *mockMailer {
	return &mockMailer{notified: make(chan struct{}, 4)}
}

func (m *mockMailer) Send(to []string, subject, body string) error {
	m.mu.Lock()
	m.sent++
	m.to = to
	m.subject = subject
	m.body = body
	m.mu.Unlock()
	m.notified <- struct{}{}
	return nil
}

type staticRoster struct{}

func (staticRoster) Team() []scheduling.TeamMember {
	return []scheduling.TeamMember{
		{Name: "Sales", Email: "sales@softtechniques.com"},
		{Name: "Support", Email: "ask@softtechniques.com"},
	}
}

func TestNotifierEmailsWholeTeam(t *testing.T) {
	mailer := newMockMailer()
	n := NewTeamNotifier(mailer, staticRoster{})

	n.ConsultationScheduled(scheduling.Request{
		ID:            "abc12345",
		Name:          "Jane Smith",
		Email:         "jane@example.com",
		Company:       "Acme",
		PreferredDate: "2030-01-07",
		PreferredTime: "10:00 AM",
		Message:       "Need help with an app",
	})

	select {
	case <-mailer.notified:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never sent")
	}

	mailer.mu.Lock()
	defer mailer.mu.Unlock()

	if len(mailer.to) != 2 {
		t.Errorf("expected 2 recipients, got %v", mailer.to)
	}
	if !strings.Contains(mailer.subject, "Jane Smith") {
		t.Errorf("subject should name the requester: %q", mailer.subject)
	}
	for _, want := range []string{"abc12345", "jane@example.com", "Acme", "2030-01-07", "10:00 AM", "Need help with an app"} {
		if !strings.Contains(mailer.body, want) {
			t.Errorf("body missing %q:\n%s", want, mailer.body)
		}
	}
}

func TestNotifierStatusChange(t *testing.T) {
	mailer := newMockMailer()
	n := NewTeamNotifier(mailer, staticRoster{})

	n.ConsultationStatusChanged(scheduling.Request{
		ID:            "abc12345",
		Name:          "Jane Smith",
		Status:        "confirmed",
		PreferredDate: "2030-01-07",
		PreferredTime: "10:00 AM",
	}, "pending")

	select {
	case <-mailer.notified:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never sent")
	}

	mailer.mu.Lock()
	defer mailer.mu.Unlock()

	if !strings.Contains(mailer.subject, "confirmed") {
		t.Errorf("subject should carry the new status: %q", mailer.subject)
	}
	if !strings.Contains(mailer.body, "pending") {
		t.Errorf("body should mention the previous status: %q", mailer.body)
	}
}

func TestNoopMailer(t *testing.T) {
	if err := (NoopMailer{}).Send([]string{"a@b.c"}, "subject", "body"); err != nil {
		t.Errorf("noop mailer must never fail: %v", err)
	}
}
