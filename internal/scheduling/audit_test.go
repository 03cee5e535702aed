package scheduling

import (
	"os"
	"strings"
	"testing"
)

func corruptFile(path string) error {
	return os.WriteFile(path, []byte("{broken"), 0644)
}

func newTestAudit(t *testing.T) (*Scheduler, *AuditLog) {
	t.Helper()
	dir := t.TempDir()

	s, err := NewScheduler(dir, "EST")
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAuditLog(dir, s)
	if err != nil {
		t.Fatal(err)
	}
	s.AddObserver(a)
	return s, a
}

func TestAuditRecordsScheduling(t *testing.T) {
	s, a := newTestAudit(t)

	scheduled, err := s.Schedule(validRequest())
	if err != nil {
		t.Fatal(err)
	}

	entries := a.RecentLogs(1)
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.ConsultationID != scheduled.ID {
		t.Errorf("expected consultation id %s, got %s", scheduled.ID, entry.ConsultationID)
	}
	if entry.Action != "scheduled" {
		t.Errorf("unexpected action %q", entry.Action)
	}
	if !strings.HasPrefix(entry.LogID, "log_") || !strings.HasSuffix(entry.LogID, "_"+scheduled.ID) {
		t.Errorf("unexpected log id format: %q", entry.LogID)
	}
}

func TestAuditRecordsStatusChanges(t *testing.T) {
	s, a := newTestAudit(t)

	scheduled, err := s.Schedule(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateStatus(scheduled.ID, StatusConfirmed); err != nil {
		t.Fatal(err)
	}

	confirmed := a.ByStatus(StatusConfirmed)
	if len(confirmed) != 1 {
		t.Fatalf("expected 1 confirmed entry, got %d", len(confirmed))
	}

	all := a.RecentLogs(1)
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	// Newest first.
	if all[0].Action != "status_changed" {
		t.Errorf("expected status change first, got %q", all[0].Action)
	}
}

func TestAuditByDateRange(t *testing.T) {
	s, a := newTestAudit(t)

	first := validRequest()
	first.PreferredDate = "2030-01-07"
	second := validRequest()
	second.Email = "other@example.com"
	second.PreferredDate = "2030-02-04"

	if _, err := s.Schedule(first); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Schedule(second); err != nil {
		t.Fatal(err)
	}

	entries := a.ByDateRange("2030-01-01", "2030-01-31")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry in January, got %d", len(entries))
	}
	if entries[0].PreferredDate != "2030-01-07" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestClearLogs(t *testing.T) {
	s, a := newTestAudit(t)

	if _, err := s.Schedule(validRequest()); err != nil {
		t.Fatal(err)
	}

	removed, err := a.ClearLogs()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if len(a.RecentLogs(1)) != 0 {
		t.Error("expected empty log after clear")
	}
}

func TestAuditRecordsDeletion(t *testing.T) {
	s, a := newTestAudit(t)

	scheduled, err := s.Schedule(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(scheduled.ID); err != nil {
		t.Fatal(err)
	}

	entries := a.RecentLogs(1)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "deleted" {
		t.Errorf("expected deletion recorded newest first, got %q", entries[0].Action)
	}
}

func TestTeamRosterDefaults(t *testing.T) {
	_, a := newTestAudit(t)

	team := a.Team()
	if len(team) == 0 {
		t.Fatal("expected a default roster")
	}
}

func TestTeamAddAndRemove(t *testing.T) {
	_, a := newTestAudit(t)
	before := len(a.Team())

	member := TeamMember{Name: "New Person", Email: "new@softtechniques.com", Role: "engineer"}
	if err := a.AddTeamMember(member); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := a.AddTeamMember(member); err == nil {
		t.Error("duplicate email must be rejected")
	}
	if len(a.Team()) != before+1 {
		t.Errorf("expected %d members, got %d", before+1, len(a.Team()))
	}

	if err := a.RemoveTeamMember("new@softtechniques.com"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := a.RemoveTeamMember("new@softtechniques.com"); err == nil {
		t.Error("removing a missing member must fail")
	}
	if len(a.Team()) != before {
		t.Errorf("expected %d members after removal, got %d", before, len(a.Team()))
	}
}

func TestStats(t *testing.T) {
	s, a := newTestAudit(t)

	first, err := s.Schedule(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	second := validRequest()
	second.Email = "other@example.com"
	second.PreferredTime = "11:00 AM"
	if _, err := s.Schedule(second); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateStatus(first.ID, StatusConfirmed); err != nil {
		t.Fatal(err)
	}

	stats := a.Stats()
	if stats.Total != 2 {
		t.Errorf("expected 2 requests, got %d", stats.Total)
	}
	if stats.ByStatus[StatusConfirmed] != 1 || stats.ByStatus[StatusPending] != 1 {
		t.Errorf("unexpected status counts: %v", stats.ByStatus)
	}
	if stats.RecentWeek != 2 {
		t.Errorf("expected 2 recent requests, got %d", stats.RecentWeek)
	}
	if stats.TeamMembers == 0 {
		t.Error("expected team members counted")
	}
}
