package scheduling

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/pkg/logger"
)

const requestsFile = "consultation_requests.json"

// slotTimes are the bookable times each business day, in display form.
var slotTimes = []string{
	"9:00 AM",
	"10:00 AM",
	"11:00 AM",
	"1:00 PM",
	"2:00 PM",
	"3:00 PM",
	"4:00 PM",
}

// horizonDays is how many business days ahead slots are offered.
const horizonDays = 14

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var ErrSlotTaken = fmt.Errorf("requested slot is already booked")
var ErrNotFound = fmt.Errorf("consultation not found")

// Request is one consultation booking in the ledger.
type Request struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Company       string    `json:"company,omitempty"`
	PreferredDate string    `json:"preferred_date"`
	PreferredTime string    `json:"preferred_time"`
	Timezone      string    `json:"timezone"`
	Message       string    `json:"message,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	ConfirmedAt   time.Time `json:"confirmed_at,omitempty"`
	ClientIP      string    `json:"client_ip,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
}

// DaySlots lists the open times for one date.
type DaySlots struct {
	Date    string   `json:"date"`
	Weekday string   `json:"weekday"`
	Times   []string `json:"times"`
}

// Observer is notified after ledger mutations. Used for the audit log and
// email notifications; failures there never fail the booking.
type Observer interface {
	ConsultationScheduled(req Request)
	ConsultationStatusChanged(req Request, previous string)
	ConsultationDeleted(req Request)
}

// Scheduler owns the consultation ledger, a JSON file guarded by a
// mutex. A booking conflicts when a pending or confirmed request already
// holds the same date and time.
type Scheduler struct {
	mu        sync.Mutex
	path      string
	location  *time.Location
	timezone  string
	requests  []Request
	observers []Observer
}

// NewScheduler loads the ledger from dataDir. A corrupt ledger file is
// logged and replaced with an empty one rather than blocking startup.
func NewScheduler(dataDir, timezone string) (*Scheduler, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	location, err := time.LoadLocation(timezoneName(timezone))
	if err != nil {
		logger.Warn("Unknown timezone, falling back to UTC", zap.String("timezone", timezone))
		location = time.UTC
	}

	tz := timezone
	if tz == "" {
		tz = "EST"
	}

	s := &Scheduler{
		path:     filepath.Join(dataDir, requestsFile),
		location: location,
		timezone: tz,
	}

	if data, err := os.ReadFile(s.path); err == nil {
		if err := json.Unmarshal(data, &s.requests); err != nil {
			logger.Warn("Corrupt consultation ledger, starting empty",
				zap.String("path", s.path), zap.Error(err))
			s.requests = nil
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read consultation ledger: %w", err)
	}

	logger.Info("Consultation ledger loaded",
		zap.String("path", s.path),
		zap.Int("requests", len(s.requests)),
	)

	return s, nil
}

func (s *Scheduler) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Schedule books a slot. The request must carry name, email, date and
// time; the slot must be free of pending and confirmed bookings.
func (s *Scheduler) Schedule(req Request) (*Request, error) {
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("name and email are required")
	}
	if req.PreferredDate == "" || req.PreferredTime == "" {
		return nil, fmt.Errorf("preferred date and time are required")
	}

	s.mu.Lock()

	for _, existing := range s.requests {
		if existing.PreferredDate == req.PreferredDate &&
			existing.PreferredTime == req.PreferredTime &&
			(existing.Status == StatusPending || existing.Status == StatusConfirmed) {
			s.mu.Unlock()
			return nil, ErrSlotTaken
		}
	}

	req.ID = uuid.NewString()[:8]
	req.Status = StatusPending
	if req.Timezone == "" {
		req.Timezone = s.timezone
	}
	req.CreatedAt = time.Now().In(s.location)

	s.requests = append(s.requests, req)
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to persist consultation: %w", err)
	}

	logger.Info("Consultation scheduled",
		zap.String("id", req.ID),
		zap.String("date", req.PreferredDate),
		zap.String("time", req.PreferredTime),
	)

	for _, o := range s.observers {
		o.ConsultationScheduled(req)
	}

	return &req, nil
}

// UpdateStatus sets a new status on a request. Any transition is allowed;
// moving to confirmed stamps ConfirmedAt.
func (s *Scheduler) UpdateStatus(id, status string) (*Request, error) {
	switch status {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
	default:
		return nil, fmt.Errorf("unknown status %q", status)
	}

	s.mu.Lock()

	idx := -1
	for i := range s.requests {
		if s.requests[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	previous := s.requests[idx].Status
	s.requests[idx].Status = status
	if status == StatusConfirmed {
		s.requests[idx].ConfirmedAt = time.Now().In(s.location)
	}
	updated := s.requests[idx]

	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to persist status change: %w", err)
	}

	logger.Info("Consultation status updated",
		zap.String("id", id),
		zap.String("from", previous),
		zap.String("to", status),
	)

	for _, o := range s.observers {
		o.ConsultationStatusChanged(updated, previous)
	}

	return &updated, nil
}

// Delete removes a request from the ledger entirely.
func (s *Scheduler) Delete(id string) error {
	s.mu.Lock()

	idx := -1
	for i := range s.requests {
		if s.requests[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	removed := s.requests[idx]
	s.requests = append(s.requests[:idx], s.requests[idx+1:]...)
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	for _, o := range s.observers {
		o.ConsultationDeleted(removed)
	}

	return nil
}

// Get returns one request by id.
func (s *Scheduler) Get(id string) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.requests {
		if req.ID == id {
			out := req
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// All returns a copy of the ledger, newest first.
func (s *Scheduler) All() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	for i, req := range s.requests {
		out[len(s.requests)-1-i] = req
	}
	return out
}

// AvailableSlots lists the open times for the next horizonDays business
// days starting tomorrow. Weekends are skipped; booked slots (pending or
// confirmed) are removed.
func (s *Scheduler) AvailableSlots() []DaySlots {
	s.mu.Lock()
	booked := make(map[string]struct{})
	for _, req := range s.requests {
		if req.Status == StatusPending || req.Status == StatusConfirmed {
			booked[req.PreferredDate+"|"+req.PreferredTime] = struct{}{}
		}
	}
	s.mu.Unlock()

	var days []DaySlots
	day := time.Now().In(s.location)

	for len(days) < horizonDays {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		date := day.Format("2006-01-02")
		var times []string
		for _, t := range slotTimes {
			if _, taken := booked[date+"|"+t]; !taken {
				times = append(times, t)
			}
		}

		days = append(days, DaySlots{
			Date:    date,
			Weekday: day.Weekday().String(),
			Times:   times,
		})
	}

	return days
}

func (s *Scheduler) persistLocked() error {
	return writeJSONAtomic(s.path, s.requests)
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	return os.Rename(tmp, path)
}

// timezoneName maps the short names used in config to IANA zones.
func timezoneName(tz string) string {
	switch tz {
	case "EST", "EDT", "":
		return "America/New_York"
	case "PST", "PDT":
		return "America/Los_Angeles"
	case "CST", "CDT":
		return "America/Chicago"
	default:
		return tz
	}
}
