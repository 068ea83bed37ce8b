package fabric

import (
	"context"
	"strconv"

	"realtime-service/internal/models"
)

// Everyone is the group every identified connection joins.
const Everyone = "everyone"

// UserGroup addresses every live connection of one user.
func UserGroup(userID int) string {
	return "user:" + strconv.Itoa(userID)
}

// ChannelGroup addresses every connection subscribed to a channel.
func ChannelGroup(channelID int) string {
	return "channel:" + strconv.Itoa(channelID)
}

// ConnGroup addresses exactly one connection.
func ConnGroup(connID string) string {
	return "conn:" + connID
}

// Publisher fans an event out to a named group. Connections listed in
// exclude are skipped.
type Publisher interface {
	Publish(ctx context.Context, group string, ev models.Event, exclude ...string) error
}

// Subscriber manages group membership of connections.
type Subscriber interface {
	Subscribe(connID, group string) error
	Unsubscribe(connID, group string)
}

// Fabric is the full publish/subscribe capability injected into components.
type Fabric interface {
	Publisher
	Subscriber
}
