package domain

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelCall     Channel = "call"
	ChannelOther    Channel = "other"
)

func ValidChannel(c string) bool {
	switch Channel(c) {
	case ChannelWhatsApp, ChannelSMS, ChannelEmail, ChannelCall, ChannelOther:
		return true
	}
	return false
}

// ActionLogEntry records that a candidate was contacted. Entries are
// append-only and only ever read back to compute the fatigue set.
type ActionLogEntry struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Channel     Channel   `json:"channel"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
