package models

import "time"

// CallKind is the media kind requested by the initiator.
type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

// CallStatus values stored in the durable call message.
const (
	CallStatusCalling  = "calling"
	CallStatusOngoing  = "ongoing"
	CallStatusEnded    = "ended"
	CallStatusNoAnswer = "no_answer"

	RecipientViewMissed = "missed"
)

// CallMetadata is the structured payload of a durable call message. Only
// non-nil fields are written, so every update is a field-level merge.
type CallMetadata struct {
	CallID           string     `json:"call_id,omitempty"`
	CallType         CallKind   `json:"call_type,omitempty"`
	CallStatus       string     `json:"call_status,omitempty"`
	InitiatorID      int        `json:"initiator_id,omitempty"`
	DurationSec      *int       `json:"duration_sec,omitempty"`
	ParticipantCount *int       `json:"participant_count,omitempty"`
	AcceptedUsers    []int      `json:"accepted_users,omitempty"`
	RecipientView    string     `json:"recipient_view,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
}

// IntPtr is a small helper for the optional numeric metadata fields.
func IntPtr(v int) *int {
	return &v
}
