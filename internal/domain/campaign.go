package domain

import "time"

// DripCampaign owns an ordered sequence of time-delayed steps.
type DripCampaign struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Description  *string    `db:"description" json:"description,omitempty"`
	TriggerEvent string     `db:"trigger_event" json:"triggerEvent"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	Steps        []DripStep `db:"-" json:"steps,omitempty"`
}

const TriggerLeadCreated = "lead_created"

// DripStep delays are relative to the previous step; the enqueuer turns them
// into absolute times by accumulating from enqueue time.
type DripStep struct {
	ID              int64  `db:"id" json:"id"`
	CampaignID      int64  `db:"campaign_id" json:"campaignId"`
	StepOrder       int    `db:"step_order" json:"stepOrder"`
	DelayMinutes    int    `db:"delay_minutes" json:"delayMinutes"`
	MessageTemplate string `db:"message_template" json:"messageTemplate"`
	IsActive        bool   `db:"is_active" json:"isActive"`
}

// DripQueueEntry is one trackable send derived from a campaign step.
type DripQueueEntry struct {
	ID           int64         `db:"id" json:"id"`
	LeadID       int64         `db:"lead_id" json:"leadId"`
	StepID       int64         `db:"step_id" json:"stepId"`
	CampaignID   int64         `db:"campaign_id" json:"campaignId"`
	Status       MessageStatus `db:"status" json:"status"`
	ScheduledAt  time.Time     `db:"scheduled_at" json:"scheduledAt"`
	Attempts     int           `db:"attempts" json:"attempts"`
	MaxAttempts  int           `db:"max_attempts" json:"maxAttempts"`
	SentAt       *time.Time    `db:"sent_at" json:"sentAt,omitempty"`
	MessageID    *string       `db:"message_id" json:"messageId,omitempty"`
	ErrorMessage *string       `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
}

// DueDripEntry joins a due queue entry with its lead and step.
type DueDripEntry struct {
	DripQueueEntry
	LeadName     string     `db:"lead_name" json:"-"`
	LeadWhatsApp string     `db:"lead_whatsapp" json:"-"`
	LeadSource   string     `db:"lead_source" json:"-"`
	LeadStatus   LeadStatus `db:"lead_status" json:"-"`
	StepOrder    int        `db:"step_order" json:"-"`
	StepTemplate string     `db:"step_template" json:"-"`
	CampaignName string     `db:"campaign_name" json:"-"`
}

// CampaignStats counts queue entries per status for a campaign.
type CampaignStats struct {
	Sent    int64 `json:"sent"`
	Pending int64 `json:"pending"`
	Failed  int64 `json:"failed"`
}
