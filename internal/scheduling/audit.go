package scheduling

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/softtechniques/softbot/pkg/logger"
)

const (
	logsFile = "consultation_logs.json"
	teamFile = "team_members.json"
)

// LogEntry is one line of the append-only consultation audit trail.
type LogEntry struct {
	LogID          string    `json:"log_id"`
	ConsultationID string    `json:"consultation_id"`
	Action         string    `json:"action"`
	Status         string    `json:"status"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PreferredDate  string    `json:"preferred_date"`
	PreferredTime  string    `json:"preferred_time"`
	ClientIP       string    `json:"client_ip,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// TeamMember is a notification recipient for new consultations.
type TeamMember struct {
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	Phone   string    `json:"phone,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Stats summarizes the ledger for the admin dashboard.
type Stats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	RecentWeek  int            `json:"recent_week"`
	TeamMembers int            `json:"team_members"`
}

// AuditLog persists the consultation audit trail and the team roster as
// JSON files next to the ledger. It implements Observer so the scheduler
// feeds it automatically.
type AuditLog struct {
	mu        sync.Mutex
	logsPath  string
	teamPath  string
	entries   []LogEntry
	team      []TeamMember
	scheduler *Scheduler
}

// NewAuditLog loads existing logs and roster from dataDir. A missing or
// corrupt roster is replaced with the default team.
func NewAuditLog(dataDir string, scheduler *Scheduler) (*AuditLog, error) {
	a := &AuditLog{
		logsPath:  filepath.Join(dataDir, logsFile),
		teamPath:  filepath.Join(dataDir, teamFile),
		scheduler: scheduler,
	}

	if data, err := os.ReadFile(a.logsPath); err == nil {
		if err := json.Unmarshal(data, &a.entries); err != nil {
			logger.Warn("Corrupt audit log, starting empty", zap.Error(err))
			a.entries = nil
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	if data, err := os.ReadFile(a.teamPath); err == nil {
		if err := json.Unmarshal(data, &a.team); err != nil {
			logger.Warn("Corrupt team roster, restoring defaults", zap.Error(err))
			a.team = nil
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read team roster: %w", err)
	}

	if len(a.team) == 0 {
		a.team = defaultTeam()
		if err := writeJSONAtomic(a.teamPath, a.team); err != nil {
			return nil, fmt.Errorf("failed to seed team roster: %w", err)
		}
	}

	return a, nil
}

// ConsultationScheduled implements Observer.
func (a *AuditLog) ConsultationScheduled(req Request) {
	a.append(req, "scheduled", req.Status)
}

// ConsultationStatusChanged implements Observer.
func (a *AuditLog) ConsultationStatusChanged(req Request, previous string) {
	a.append(req, "status_changed", req.Status)
}

// ConsultationDeleted implements Observer.
func (a *AuditLog) ConsultationDeleted(req Request) {
	a.append(req, "deleted", req.Status)
}

func (a *AuditLog) append(req Request, action, status string) {
	now := time.Now()
	entry := LogEntry{
		LogID:          fmt.Sprintf("log_%s_%s", now.Format("20060102_150405"), req.ID),
		ConsultationID: req.ID,
		Action:         action,
		Status:         status,
		Name:           req.Name,
		Email:          req.Email,
		PreferredDate:  req.PreferredDate,
		PreferredTime:  req.PreferredTime,
		ClientIP:       req.ClientIP,
		UserAgent:      req.UserAgent,
		Timestamp:      now,
	}

	a.mu.Lock()
	a.entries = append(a.entries, entry)
	err := writeJSONAtomic(a.logsPath, a.entries)
	a.mu.Unlock()

	if err != nil {
		logger.Error("Failed to persist audit entry",
			zap.String("log_id", entry.LogID), zap.Error(err))
	}
}

// RecentLogs returns entries from the last N hours, newest first.
func (a *AuditLog) RecentLogs(hours int) []LogEntry {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	return a.filter(func(e LogEntry) bool {
		return e.Timestamp.After(cutoff)
	})
}

// ByStatus returns entries recorded with the given status, newest first.
func (a *AuditLog) ByStatus(status string) []LogEntry {
	return a.filter(func(e LogEntry) bool {
		return e.Status == status
	})
}

// ByDateRange returns entries whose consultation date falls between start
// and end inclusive (YYYY-MM-DD), newest first.
func (a *AuditLog) ByDateRange(start, end string) []LogEntry {
	return a.filter(func(e LogEntry) bool {
		return e.PreferredDate >= start && e.PreferredDate <= end
	})
}

func (a *AuditLog) filter(keep func(LogEntry) bool) []LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []LogEntry
	for _, e := range a.entries {
		if keep(e) {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ClearLogs truncates the audit trail.
func (a *AuditLog) ClearLogs() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := len(a.entries)
	a.entries = nil

	if err := writeJSONAtomic(a.logsPath, []LogEntry{}); err != nil {
		return 0, err
	}

	logger.Info("Audit log cleared", zap.Int("removed", removed))
	return removed, nil
}

// Team returns a copy of the roster.
func (a *AuditLog) Team() []TeamMember {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]TeamMember, len(a.team))
	copy(out, a.team)
	return out
}

// AddTeamMember appends to the roster. Duplicate emails are rejected.
func (a *AuditLog) AddTeamMember(member TeamMember) error {
	if member.Name == "" || member.Email == "" {
		return fmt.Errorf("name and email are required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, existing := range a.team {
		if existing.Email == member.Email {
			return fmt.Errorf("team member %s already exists", member.Email)
		}
	}

	member.AddedAt = time.Now()
	a.team = append(a.team, member)
	return writeJSONAtomic(a.teamPath, a.team)
}

// RemoveTeamMember drops the roster entry with the given email.
func (a *AuditLog) RemoveTeamMember(email string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, member := range a.team {
		if member.Email == email {
			a.team = append(a.team[:i], a.team[i+1:]...)
			return writeJSONAtomic(a.teamPath, a.team)
		}
	}

	return fmt.Errorf("team member %s not found", email)
}

// Stats aggregates the consultation ledger and roster.
func (a *AuditLog) Stats() Stats {
	requests := a.scheduler.All()

	byStatus := make(map[string]int)
	recentWeek := 0
	weekAgo := time.Now().AddDate(0, 0, -7)

	for _, req := range requests {
		byStatus[req.Status]++
		if req.CreatedAt.After(weekAgo) {
			recentWeek++
		}
	}

	a.mu.Lock()
	teamCount := len(a.team)
	a.mu.Unlock()

	return Stats{
		Total:       len(requests),
		ByStatus:    byStatus,
		RecentWeek:  recentWeek,
		TeamMembers: teamCount,
	}
}

func defaultTeam() []TeamMember {
	now := time.Now()
	return []TeamMember{
		{Name: "Sales Team", Email: "sales@softtechniques.com", Role: "sales", AddedAt: now},
		{Name: "Support Team", Email: "ask@softtechniques.com", Role: "support", AddedAt: now},
	}
}
