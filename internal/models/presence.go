package models

import "time"

// Presence is the derived online/away/offline state of one user.
// IsAway implies IsOnline; LastSeen is nil while the user is online.
type Presence struct {
	UserID   int        `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	IsAway   bool       `json:"is_away"`
	LastSeen *time.Time `json:"last_seen"`
}

// Status renders the presence as a single word.
func (p Presence) Status() string {
	switch {
	case p.IsAway:
		return "away"
	case p.IsOnline:
		return "online"
	default:
		return "offline"
	}
}

// Online returns the presence of a connected, active user.
func Online(userID int) Presence {
	return Presence{UserID: userID, IsOnline: true}
}

// Away returns the presence of a connected, idle user.
func Away(userID int, at time.Time) Presence {
	ts := at.UTC()
	return Presence{UserID: userID, IsOnline: true, IsAway: true, LastSeen: &ts}
}

// Offline returns the presence of a user with no live connection.
func Offline(userID int, at time.Time) Presence {
	ts := at.UTC()
	return Presence{UserID: userID, LastSeen: &ts}
}
