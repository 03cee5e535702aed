package memory

import (
	"strings"
	"sync"
	"time"
)

// windowSize is the number of turns kept per session. Older turns are
// dropped as new ones arrive.
const windowSize = 10

// Turn is one exchange stored in a session window.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary describes a session for the admin endpoints.
type Summary struct {
	SessionID    string    `json:"session_id"`
	TurnCount    int       `json:"turn_count"`
	LastActivity time.Time `json:"last_activity"`
	Topics       []string  `json:"topics"`
}

// Store keeps a sliding window of recent turns per session, in memory
// only. Sessions disappear on restart, which is fine for short support
// conversations.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string][]Turn),
	}
}

// Append records a turn, evicting the oldest once the window is full.
func (s *Store) Append(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[sessionID], Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})

	if len(turns) > windowSize {
		turns = turns[len(turns)-windowSize:]
	}

	s.sessions[sessionID] = turns
}

// History returns the session's turns oldest first. The slice is a copy.
func (s *Store) History(sessionID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear drops a session. Returns whether it existed.
func (s *Store) Clear(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return ok
}

// Summary describes one session, or ok=false when it does not exist.
func (s *Store) Summary(sessionID string) (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if len(turns) == 0 {
		return Summary{}, false
	}

	return Summary{
		SessionID:    sessionID,
		TurnCount:    len(turns),
		LastActivity: turns[len(turns)-1].Timestamp,
		Topics:       detectTopics(turns),
	}, true
}

// Sessions lists summaries for every live session.
func (s *Store) Sessions() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.sessions))
	for id, turns := range s.sessions {
		if len(turns) == 0 {
			continue
		}
		out = append(out, Summary{
			SessionID:    id,
			TurnCount:    len(turns),
			LastActivity: turns[len(turns)-1].Timestamp,
			Topics:       detectTopics(turns),
		})
	}
	return out
}

// detectTopics is a cheap keyword pass over user turns, enough for the
// admin dashboard to label sessions.
func detectTopics(turns []Turn) []string {
	keywords := map[string][]string{
		"pricing":        {"price", "pricing", "cost", "quote", "budget"},
		"services":       {"service", "services", "web", "mobile", "cloud", "api"},
		"demo":           {"demo", "demonstration", "example"},
		"implementation": {"implement", "implementation", "timeline", "deliver"},
		"consultation":   {"consultation", "schedule", "book", "appointment"},
	}

	found := make(map[string]struct{})
	for _, turn := range turns {
		if turn.Role != "user" {
			continue
		}
		lower := strings.ToLower(turn.Content)
		for topic, words := range keywords {
			for _, word := range words {
				if strings.Contains(lower, word) {
					found[topic] = struct{}{}
					break
				}
			}
		}
	}

	ordered := []string{"consultation", "pricing", "services", "demo", "implementation"}
	var topics []string
	for _, topic := range ordered {
		if _, ok := found[topic]; ok {
			topics = append(topics, topic)
		}
	}
	return topics
}
