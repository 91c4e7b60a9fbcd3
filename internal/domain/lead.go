package domain

import (
	"strings"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusReplied   LeadStatus = "replied"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Lead is the aggregate root of the outreach funnel. Its status is the single
// source of truth for whether automation may still message it.
type Lead struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	WhatsApp  string     `db:"whatsapp" json:"whatsapp"`
	Source    string     `db:"source" json:"source"`
	Notes     *string    `db:"notes" json:"notes,omitempty"`
	Status    LeadStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// FirstName returns the first whitespace-separated token of the lead's name.
func (l *Lead) FirstName() string {
	fields := strings.Fields(l.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// InActiveAutomation reports whether the lead is still inside the automated
// follow-up window (an inbound reply promotes these to replied).
func (l *Lead) InActiveAutomation() bool {
	return l.Status == LeadStatusNew || l.Status == LeadStatusContacted
}
