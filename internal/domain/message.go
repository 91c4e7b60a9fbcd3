package domain

import (
	"encoding/json"
	"time"
)

// MessageStatus is shared by scheduled messages and drip queue entries.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusFailed    MessageStatus = "failed"
	StatusCancelled MessageStatus = "cancelled"
)

// ScheduledMessage is a one-off follow-up owned by a lead. Custom body wins
// over the template for its kind; with neither, the built-in fallback applies.
type ScheduledMessage struct {
	ID         int64         `db:"id" json:"id"`
	LeadID     int64         `db:"lead_id" json:"leadId"`
	Kind       string        `db:"kind" json:"kind"`
	CustomBody *string       `db:"custom_body" json:"customBody,omitempty"`
	DueAt      time.Time     `db:"due_at" json:"dueAt"`
	Status     MessageStatus `db:"status" json:"status"`
	Attempts   int           `db:"attempts" json:"attempts"`
	LastError  *string       `db:"last_error" json:"lastError,omitempty"`
	SentAt     *time.Time    `db:"sent_at" json:"sentAt,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}

// DueScheduledMessage is a scheduled message joined with the owning lead,
// as fetched by the processor in one query.
type DueScheduledMessage struct {
	ScheduledMessage
	LeadName     string     `db:"lead_name" json:"-"`
	LeadWhatsApp string     `db:"lead_whatsapp" json:"-"`
	LeadStatus   LeadStatus `db:"lead_status" json:"-"`
}

// MessageTemplate holds the body for a scheduled-message kind.
type MessageTemplate struct {
	ID       int64  `db:"id" json:"id"`
	Kind     string `db:"kind" json:"kind"`
	Content  string `db:"content" json:"content"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

type MessageDirection string

const (
	DirectionSent     MessageDirection = "sent"
	DirectionReceived MessageDirection = "received"
)

// MessageLog is the append-only audit trail. Inbound dedup keys off the
// provider message id stored in Metadata.
type MessageLog struct {
	ID        int64            `db:"id" json:"id"`
	LeadID    *int64           `db:"lead_id" json:"leadId,omitempty"`
	WhatsApp  string           `db:"whatsapp" json:"whatsapp"`
	Direction MessageDirection `db:"direction" json:"direction"`
	Content   string           `db:"content" json:"content"`
	Metadata  json.RawMessage  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

// ProcessResult aggregates one processor tick.
type ProcessResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
