package notify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/scheduling"
	"github.com/softtechniques/softbot/pkg/logger"
)

// Roster provides the current notification recipients.
type Roster interface {
	Team() []scheduling.TeamMember
}

// TeamNotifier emails the team about ledger changes. It implements
// scheduling.Observer; sends run in the background and failures are only
// logged, never surfaced to the person booking.
type TeamNotifier struct {
	mailer Mailer
	roster Roster
}

func NewTeamNotifier(mailer Mailer, roster Roster) *TeamNotifier {
	return &TeamNotifier{mailer: mailer, roster: roster}
}

func (n *TeamNotifier) ConsultationScheduled(req scheduling.Request) {
	subject := fmt.Sprintf("New consultation request from %s", req.Name)
	body := newRequestBody(req)
	n.send(req.ID, subject, body)
}

func (n *TeamNotifier) ConsultationStatusChanged(req scheduling.Request, previous string) {
	subject := fmt.Sprintf("Consultation %s is now %s", req.ID, req.Status)
	body := fmt.Sprintf("Consultation %s (%s, %s at %s) changed from %s to %s.",
		req.ID, req.Name, req.PreferredDate, req.PreferredTime, previous, req.Status)
	n.send(req.ID, subject, body)
}

// ConsultationDeleted implements scheduling.Observer. Deletions are an
// admin action; the audit log records them and no email goes out.
func (n *TeamNotifier) ConsultationDeleted(_ scheduling.Request) {}

func (n *TeamNotifier) send(consultationID, subject, body string) {
	recipients := make([]string, 0)
	for _, member := range n.roster.Team() {
		recipients = append(recipients, member.Email)
	}

	go func() {
		if err := n.mailer.Send(recipients, subject, body); err != nil {
			logger.Error("Team notification failed",
				zap.String("consultation_id", consultationID),
				zap.Error(err),
			)
			return
		}
		logger.Info("Team notified",
			zap.String("consultation_id", consultationID),
			zap.Int("recipients", len(recipients)),
		)
	}()
}

func newRequestBody(req scheduling.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new consultation was requested.\n\n")
	fmt.Fprintf(&b, "ID: %s\n", req.ID)
	fmt.Fprintf(&b, "Name: %s\n", req.Name)
	fmt.Fprintf(&b, "Email: %s\n", req.Email)
	if req.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", req.Phone)
	}
	if req.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", req.Company)
	}
	fmt.Fprintf(&b, "When: %s at %s\n", req.PreferredDate, req.PreferredTime)
	if req.Message != "" {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", req.Message)
	}
	return b.String()
}
