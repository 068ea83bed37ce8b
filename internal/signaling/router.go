package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"realtime-service/internal/call"
	"realtime-service/internal/delivery"
	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
	"realtime-service/internal/presence"
	"realtime-service/internal/registry"
)

// Transport is the connection side of the broadcast fabric.
type Transport interface {
	fabric.Subscriber
	Identify(connID string, userID int)
}

// ChannelLister resolves the channels a user belongs to.
type ChannelLister interface {
	ChannelIDsForUser(ctx context.Context, userID int) ([]int, error)
}

type joinPayload struct {
	UserID int `json:"userId"`
}

type deliveredPayload struct {
	MessageID  int   `json:"messageId"`
	MessageIDs []int `json:"messageIds"`
	SenderID   int   `json:"senderId"`
}

type seenPayload struct {
	MessageIDs []int `json:"messageIds"`
	MessageID  int   `json:"messageId"`
	UserID     int   `json:"userId"`
}

type chatPayload struct {
	ChatID   int    `json:"chatId"`
	ChatType string `json:"chatType"`
}

// Router maps event names to component operations. All methods run on the
// dispatcher loop.
type Router struct {
	registry  *registry.Registry
	presence  *presence.Tracker
	delivery  *delivery.Propagator
	calls     *call.Coordinator
	channels  ChannelLister
	transport Transport
}

func NewRouter(reg *registry.Registry, tracker *presence.Tracker, prop *delivery.Propagator, calls *call.Coordinator, channels ChannelLister, transport Transport) *Router {
	return &Router{
		registry:  reg,
		presence:  tracker,
		delivery:  prop,
		calls:     calls,
		channels:  channels,
		transport: transport,
	}
}

// Handle executes one inbound frame from connID.
func (r *Router) Handle(ctx context.Context, connID string, frame models.InboundFrame) error {
	if frame.Name == models.EventJoinRoom {
		var p joinPayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		return r.join(ctx, connID, p.UserID)
	}

	userID, ok := r.registry.UserOf(ctx, connID)
	if !ok {
		return fmt.Errorf("%s before join-room on conn %s: %w", frame.Name, connID, models.ErrForbidden)
	}

	switch frame.Name {
	case models.EventSetAway:
		return r.presence.SetAway(ctx, userID, connID)
	case models.EventSetOnline:
		return r.presence.SetOnline(ctx, userID, connID)

	case models.EventInitiateCall:
		var p call.InitiateRequest
		if err := decode(frame, &p); err != nil {
			return err
		}
		return r.calls.Initiate(ctx, connID, userID, p)
	case models.EventAcceptCall, models.EventDeclineCall, models.EventRejoinCall, models.EventEndCall,
		models.EventStartScreenShare, models.EventStopScreenShare,
		models.EventAcceptRemoteControl, models.EventDenyRemoteControl, models.EventStopRemoteControl:
		var p call.CallRef
		if err := decode(frame, &p); err != nil {
			return err
		}
		return r.callRef(ctx, connID, userID, frame.Name, p.CallID)
	case models.EventWebRTCOffer, models.EventWebRTCAnswer, models.EventICECandidate:
		var p call.TargetRequest
		if err := decode(frame, &p); err != nil {
			return err
		}
		return r.calls.Relay(ctx, connID, userID, frame.Name, p, frame.Data)
	case models.EventToggleAudio, models.EventToggleVideo:
		var p call.ToggleRequest
		if err := decode(frame, &p); err != nil {
			return err
		}
		if frame.Name == models.EventToggleAudio {
			return r.calls.ToggleAudio(ctx, connID, userID, p)
		}
		return r.calls.ToggleVideo(ctx, connID, userID, p)
	case models.EventRequestRemoteControl:
		var p call.TargetRequest
		if err := decode(frame, &p); err != nil {
			return err
		}
		return r.calls.RequestRemoteControl(ctx, connID, userID, p)

	case models.EventMessageDelivered:
		var p deliveredPayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		return r.delivery.MarkDelivered(ctx, withSingle(p.MessageIDs, p.MessageID), userID)
	case models.EventMessageSeen:
		var p seenPayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		return r.delivery.MarkSeen(ctx, withSingle(p.MessageIDs, p.MessageID), userID)
	case models.EventMarkLastMessageSeen, models.EventMarkMessagesRead:
		var p chatPayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		chatType, err := models.ParseChatType(p.ChatType)
		if err != nil {
			return err
		}
		if frame.Name == models.EventMarkLastMessageSeen {
			return r.delivery.MarkLastMessageSeen(ctx, p.ChatID, chatType, userID)
		}
		return r.delivery.MarkAllSeenForChat(ctx, p.ChatID, chatType, userID)
	}
	return fmt.Errorf("unknown event %q: %w", frame.Name, models.ErrBadPayload)
}

func (r *Router) callRef(ctx context.Context, connID string, userID int, name, callID string) error {
	switch name {
	case models.EventAcceptCall:
		return r.calls.Accept(ctx, connID, userID, callID)
	case models.EventDeclineCall:
		return r.calls.Decline(ctx, connID, userID, callID)
	case models.EventRejoinCall:
		return r.calls.Rejoin(ctx, connID, userID, callID)
	case models.EventEndCall:
		return r.calls.Leave(ctx, connID, userID, callID)
	case models.EventStartScreenShare:
		return r.calls.StartScreenShare(ctx, connID, userID, callID)
	case models.EventStopScreenShare:
		return r.calls.StopScreenShare(ctx, connID, userID, callID)
	case models.EventAcceptRemoteControl:
		return r.calls.AcceptRemoteControl(ctx, connID, userID, callID)
	case models.EventDenyRemoteControl:
		return r.calls.DenyRemoteControl(ctx, connID, userID, callID)
	default:
		return r.calls.StopRemoteControl(ctx, connID, userID, callID)
	}
}

// join binds the connection to its user, subscribes it to its groups,
// delivers pending messages and hands it the presence roster.
func (r *Router) join(ctx context.Context, connID string, userID int) error {
	if userID <= 0 {
		return fmt.Errorf("join-room user id %d: %w", userID, models.ErrBadPayload)
	}
	first, err := r.registry.Register(ctx, connID, userID)
	if err != nil {
		return err
	}
	r.transport.Identify(connID, userID)

	groups := []string{fabric.UserGroup(userID), fabric.Everyone}
	channelIDs, err := r.channels.ChannelIDsForUser(ctx, userID)
	if err != nil {
		log.Printf("signaling: channel lookup failed user_id=%d: %v", userID, err)
	}
	for _, id := range channelIDs {
		groups = append(groups, fabric.ChannelGroup(id))
	}
	for _, group := range groups {
		if err := r.transport.Subscribe(connID, group); err != nil {
			return err
		}
	}

	if err := r.delivery.CatchUp(ctx, userID); err != nil {
		log.Printf("signaling: catch-up failed user_id=%d: %v", userID, err)
	}
	if err := r.presence.Connected(ctx, userID, connID, first); err != nil {
		log.Printf("signaling: roster failed user_id=%d: %v", userID, err)
	}
	log.Printf("signaling: joined conn=%s user_id=%d first=%t channels=%d", connID, userID, first, len(channelIDs))
	return nil
}

// Disconnected releases everything the connection held. Unidentified
// connections are ignored.
func (r *Router) Disconnected(ctx context.Context, connID string) error {
	userID, last, ok, err := r.registry.Unregister(ctx, connID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	r.calls.Disconnect(ctx, connID, userID)
	r.presence.Disconnected(ctx, userID, last)
	return nil
}

func decode(frame models.InboundFrame, v any) error {
	if len(frame.Data) == 0 {
		return fmt.Errorf("%s without data: %w", frame.Name, models.ErrBadPayload)
	}
	if err := json.Unmarshal(frame.Data, v); err != nil {
		return fmt.Errorf("decode %s: %v: %w", frame.Name, err, models.ErrBadPayload)
	}
	return nil
}

func withSingle(ids []int, id int) []int {
	if id > 0 {
		ids = append(ids, id)
	}
	return ids
}
