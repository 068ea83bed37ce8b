package call

import (
	"time"

	"realtime-service/internal/models"
)

// InitiateRequest is the initiate-call payload.
type InitiateRequest struct {
	CallID   string `json:"callId"`
	ChatID   int    `json:"chatId"`
	ChatType string `json:"chatType"`
	CallType string `json:"callType"`
}

// CallRef names a call in accept/decline/end/rejoin and screen-share frames.
type CallRef struct {
	CallID string `json:"callId"`
}

// ToggleRequest carries a media flag change.
type ToggleRequest struct {
	CallID  string `json:"callId"`
	Enabled bool   `json:"enabled"`
}

// TargetRequest addresses another participant: webrtc relays and
// remote-control requests.
type TargetRequest struct {
	CallID       string `json:"callId"`
	TargetUserID int    `json:"targetUserId"`
}

// IncomingCallPayload rings an invitee.
type IncomingCallPayload struct {
	CallID      string          `json:"callId"`
	ChatID      int             `json:"chatId"`
	ChatType    models.ChatType `json:"chatType"`
	CallType    models.CallKind `json:"callType"`
	FromUserID  int             `json:"fromUserId"`
	FromName    string          `json:"fromName"`
	ChannelName string          `json:"channelName,omitempty"`
	MessageID   int             `json:"messageId,omitempty"`
}

// MembershipPayload announces a participant joining or leaving.
type MembershipPayload struct {
	CallID           string        `json:"callId"`
	UserID           int           `json:"userId"`
	Name             string        `json:"name,omitempty"`
	Rejoined         bool          `json:"rejoined,omitempty"`
	ParticipantCount int           `json:"participantCount"`
	Participants     []Participant `json:"participants"`
}

// DeclinedPayload tells the call a user declined.
type DeclinedPayload struct {
	CallID string `json:"callId"`
	UserID int    `json:"userId"`
}

// EndedPayload is the final call-ended notice.
type EndedPayload struct {
	CallID           string `json:"callId"`
	Reason           string `json:"reason"`
	Status           string `json:"status"`
	DurationSec      int    `json:"durationSec"`
	ParticipantCount int    `json:"participantCount"`
}

// BusyPayload is returned to an initiator whose call could not start.
type BusyPayload struct {
	CallID string `json:"callId"`
	UserID int    `json:"userId"`
}

// SnapshotPayload is the state handed to a joining or rejoining participant.
type SnapshotPayload struct {
	CallID         string          `json:"callId"`
	ChatID         int             `json:"chatId"`
	ChatType       models.ChatType `json:"chatType"`
	CallType       models.CallKind `json:"callType"`
	ChatName       string          `json:"chatName,omitempty"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	ScreenSharerID int             `json:"screenSharerId,omitempty"`
	Participants   []Participant   `json:"participants"`
}

// TogglePayload mirrors a participant's media flag.
type TogglePayload struct {
	CallID  string `json:"callId"`
	UserID  int    `json:"userId"`
	Enabled bool   `json:"enabled"`
}

// ScreenSharePayload is used for screen-share start/stop notices.
type ScreenSharePayload struct {
	CallID string `json:"callId"`
	UserID int    `json:"userId"`
}

// RemoteControlPayload is used by every remote-control notice.
type RemoteControlPayload struct {
	CallID         string `json:"callId"`
	ControllerID   int    `json:"controllerId"`
	ControllerName string `json:"controllerName,omitempty"`
	TargetID       int    `json:"targetId"`
	Reason         string `json:"reason,omitempty"`
}

// View is the read-only rendering of a live call.
type View struct {
	CallID         string          `json:"call_id"`
	ChatID         int             `json:"chat_id"`
	ChatType       models.ChatType `json:"chat_type"`
	CallType       models.CallKind `json:"call_type"`
	Status         Status          `json:"status"`
	InitiatorID    int             `json:"initiator_id"`
	MessageID      int             `json:"message_id,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	AcceptedAt     *time.Time      `json:"accepted_at,omitempty"`
	Invited        []int           `json:"invited"`
	AcceptedUsers  []int           `json:"accepted_users"`
	ScreenSharerID int             `json:"screen_sharer_id,omitempty"`
	RemoteControl  *RemoteControl  `json:"remote_control,omitempty"`
	Participants   []Participant   `json:"participants"`
}
