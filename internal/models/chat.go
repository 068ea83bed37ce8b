package models

import (
	"fmt"
	"time"
)

// ChatType distinguishes channel conversations from direct messages.
type ChatType string

const (
	ChatTypeChannel ChatType = "channel"
	ChatTypeDM      ChatType = "dm"
)

// Valid reports whether t is a known chat type.
func (t ChatType) Valid() bool {
	return t == ChatTypeChannel || t == ChatTypeDM
}

// ParseChatType accepts the wire spellings used by clients.
func ParseChatType(s string) (ChatType, error) {
	switch s {
	case "channel", "group":
		return ChatTypeChannel, nil
	case "dm", "direct", "user":
		return ChatTypeDM, nil
	}
	return "", fmt.Errorf("chat type %q: %w", s, ErrBadPayload)
}

// User is the slice of the user row the engine reads and writes.
type User struct {
	ID         int        `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	IsOnline   bool       `db:"is_online" json:"is_online"`
	IsAway     bool       `db:"is_away" json:"is_away"`
	LastSeen   *time.Time `db:"last_seen" json:"last_seen"`
	PushTokens []string   `db:"-" json:"-"`
}

// Channel represents a multi-member conversation.
type Channel struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChannelMember links a user to a channel.
type ChannelMember struct {
	ChannelID int `db:"channel_id" json:"channel_id"`
	UserID    int `db:"user_id" json:"user_id"`
}
