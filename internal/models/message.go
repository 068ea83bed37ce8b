package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Message represents a persisted chat message. Exactly one of ChannelID and
// RecipientID is set.
type Message struct {
	ID          int            `db:"id" json:"id"`
	ChannelID   *int           `db:"channel_id" json:"channel_id,omitempty"`
	RecipientID *int           `db:"recipient_id" json:"recipient_id,omitempty"`
	SenderID    int            `db:"sender_id" json:"sender_id"`
	Type        string         `db:"type" json:"type"`
	Content     string         `db:"content" json:"content"`
	Metadata    types.JSONText `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// MessageTypeCall marks the durable row mirroring a call session.
const MessageTypeCall = "call"

// ChatID returns the chat the message belongs to from the reader's side.
func (m Message) ChatID(readerID int) (int, ChatType) {
	if m.ChannelID != nil {
		return *m.ChannelID, ChatTypeChannel
	}
	if m.SenderID == readerID && m.RecipientID != nil {
		return *m.RecipientID, ChatTypeDM
	}
	return m.SenderID, ChatTypeDM
}

// DeliveryStatus is the per-recipient progression of a message.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusSeen      DeliveryStatus = "seen"
)

// Rank orders statuses so transitions can be checked for monotonicity.
func (s DeliveryStatus) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusSeen:
		return 3
	}
	return 0
}

// MessageStatus is one (message, recipient) delivery row.
type MessageStatus struct {
	MessageID         int            `db:"message_id" json:"message_id"`
	UserID            int            `db:"user_id" json:"user_id"`
	Status            DeliveryStatus `db:"status" json:"status"`
	HasUnreadMentions bool           `db:"has_unread_mentions" json:"has_unread_mentions"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// StatusChange describes a row whose status actually advanced, joined with
// the message fields needed to notify the sender.
type StatusChange struct {
	MessageID   int            `db:"message_id"`
	SenderID    int            `db:"sender_id"`
	ChannelID   *int           `db:"channel_id"`
	RecipientID *int           `db:"recipient_id"`
	Status      DeliveryStatus `db:"status"`
}

// Chat returns the chat of the changed message as seen by its recipient.
func (c StatusChange) Chat() (int, ChatType) {
	if c.ChannelID != nil {
		return *c.ChannelID, ChatTypeChannel
	}
	return c.SenderID, ChatTypeDM
}
