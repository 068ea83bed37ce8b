package models

import (
	"encoding/json"
	"time"
)

// Event is the frame exchanged with websocket clients in both directions.
type Event struct {
	Name string `json:"event"`
	From int    `json:"from,omitempty"`
	Data any    `json:"data,omitempty"`
}

// InboundFrame is the decoded form of a client frame; Data is kept raw until
// the router knows which payload type to decode into.
type InboundFrame struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Inbound event names.
const (
	EventJoinRoom             = "join-room"
	EventSetAway              = "set-away"
	EventSetOnline            = "set-online"
	EventInitiateCall         = "initiate-call"
	EventAcceptCall           = "accept-call"
	EventDeclineCall          = "decline-call"
	EventRejoinCall           = "rejoin-call"
	EventEndCall              = "end-call"
	EventWebRTCOffer          = "webrtc-offer"
	EventWebRTCAnswer         = "webrtc-answer"
	EventICECandidate         = "ice-candidate"
	EventToggleVideo          = "toggle-video"
	EventToggleAudio          = "toggle-audio"
	EventStartScreenShare     = "start-screen-share"
	EventStopScreenShare      = "stop-screen-share"
	EventRequestRemoteControl = "request-remote-control"
	EventAcceptRemoteControl  = "accept-remote-control"
	EventDenyRemoteControl    = "deny-remote-control"
	EventStopRemoteControl    = "stop-remote-control"
	EventMessageDelivered     = "message-delivered"
	EventMessageSeen          = "message-seen"
	EventMarkLastMessageSeen  = "mark-last-message-seen"
	EventMarkMessagesRead     = "mark-messages-read"
)

// Outbound event names.
const (
	EventUserStatusUpdate      = "user-status-update"
	EventBulkUserStatusUpdate  = "bulk-user-status-update"
	EventIncomingCall          = "incoming-call"
	EventCallAccepted          = "call-accepted"
	EventCallDeclined          = "call-declined"
	EventCallEnded             = "call-ended"
	EventCallParticipants      = "call-participants"
	EventParticipantLeft       = "participant-left"
	EventCallBusy              = "call-busy"
	EventMessageStatusUpdated  = "message-status-updated"
	EventMessagesRead          = "messages-read"
	EventMessageUpdated        = "message-updated"
	EventScreenShareStarted    = "screen-share-started"
	EventScreenShareStopped    = "screen-share-stopped"
	EventForceStopScreenShare  = "force-stop-screen-share"
	EventRemoteControlRequest  = "remote-control-request"
	EventRemoteControlAccepted = "remote-control-accepted"
	EventRemoteControlDenied   = "remote-control-denied"
	EventRemoteControlStopped  = "remote-control-stopped"
)

// UserStatusPayload carries one presence delta.
type UserStatusPayload struct {
	UserID   int        `json:"userId"`
	Status   string     `json:"status"`
	IsOnline bool       `json:"isOnline"`
	IsAway   bool       `json:"isAway"`
	LastSeen *time.Time `json:"lastSeen"`
}

// NewUserStatusPayload converts a presence into its wire form.
func NewUserStatusPayload(p Presence) UserStatusPayload {
	return UserStatusPayload{
		UserID:   p.UserID,
		Status:   p.Status(),
		IsOnline: p.IsOnline,
		IsAway:   p.IsAway,
		LastSeen: p.LastSeen,
	}
}

// MessageStatusPayload notifies a sender that a recipient's status advanced.
type MessageStatusPayload struct {
	MessageID int            `json:"messageId"`
	UserID    int            `json:"userId"`
	Status    DeliveryStatus `json:"status"`
}

// MessagesReadPayload is the chat-level summary used to clear unread badges.
type MessagesReadPayload struct {
	ChatID     int      `json:"chatId"`
	ChatType   ChatType `json:"chatType"`
	ReaderID   int      `json:"readerId"`
	MessageIDs []int    `json:"messageIds"`
}
