// Package call runs the call lifecycle: ringing, joining, leaving, teardown,
// screen-share arbitration and remote-control hand-off.
package call

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
	"realtime-service/internal/observability"
	"realtime-service/internal/push"
	"realtime-service/internal/repositories"
	"realtime-service/internal/state"
	"realtime-service/internal/telemetry"
)

// Teardown reasons carried in call-ended.
const (
	ReasonDeclined   = "declined"
	ReasonTimeout    = "timeout"
	ReasonHangup     = "hangup"
	ReasonDisconnect = "disconnect"
	ReasonShutdown   = "shutdown"
)

// DefaultCallingTimeout bounds the ringing phase.
const DefaultCallingTimeout = 20 * time.Second

type UserDirectory interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	PushTokens(ctx context.Context, userIDs []int) ([]string, error)
}

type ChannelDirectory interface {
	GetChannel(ctx context.Context, channelID int) (models.Channel, error)
	MemberIDs(ctx context.Context, channelID int) ([]int, error)
}

// OnlineChecker reports whether a user has any live connection.
type OnlineChecker interface {
	IsOnline(ctx context.Context, userID int) bool
}

// Deps are the collaborators of a Coordinator. Nil stores default to
// in-memory ones and a nil Clock uses wall time.
type Deps struct {
	Users          UserDirectory
	Channels       ChannelDirectory
	Messages       repositories.MessageRepository
	Fabric         fabric.Publisher
	Online         OnlineChecker
	Push           push.Sender
	Audit          *telemetry.AuditEmitter
	Clock          Clock
	Calls          state.Store[string, *Session]
	Sharers        state.Store[string, int]
	Remote         state.Store[string, RemoteControl]
	CallingTimeout time.Duration
}

// Coordinator owns every live call. Its methods must be called from the
// engine loop; timer callbacks are handed back to that loop through the
// scheduler.
type Coordinator struct {
	users    UserDirectory
	channels ChannelDirectory
	messages repositories.MessageRepository
	fabric   fabric.Publisher
	online   OnlineChecker
	push     push.Sender
	audit    *telemetry.AuditEmitter
	clock    Clock
	calls    state.Store[string, *Session]
	sharers  state.Store[string, int]
	remote   state.Store[string, RemoteControl]
	timeout  time.Duration

	schedule func(func(ctx context.Context))
	pushes   sync.WaitGroup
}

func NewCoordinator(d Deps) *Coordinator {
	c := &Coordinator{
		users:    d.Users,
		channels: d.Channels,
		messages: d.Messages,
		fabric:   d.Fabric,
		online:   d.Online,
		push:     d.Push,
		audit:    d.Audit,
		clock:    d.Clock,
		calls:    d.Calls,
		sharers:  d.Sharers,
		remote:   d.Remote,
		timeout:  d.CallingTimeout,
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.calls == nil {
		c.calls = state.NewMemoryStore[string, *Session]()
	}
	if c.sharers == nil {
		c.sharers = state.NewMemoryStore[string, int]()
	}
	if c.remote == nil {
		c.remote = state.NewMemoryStore[string, RemoteControl]()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultCallingTimeout
	}
	c.schedule = func(fn func(ctx context.Context)) { fn(context.Background()) }
	return c
}

// SetScheduler routes timer callbacks onto the engine loop.
func (c *Coordinator) SetScheduler(fn func(func(ctx context.Context))) {
	c.schedule = fn
}

// WaitPushes blocks until in-flight push dispatches finish.
func (c *Coordinator) WaitPushes() {
	c.pushes.Wait()
}

// Initiate starts ringing the invitees of a channel or DM.
func (c *Coordinator) Initiate(ctx context.Context, connID string, userID int, req InitiateRequest) error {
	chatType, err := models.ParseChatType(req.ChatType)
	if err != nil {
		return err
	}
	kind := models.CallKind(req.CallType)
	if kind == "" {
		kind = models.CallAudio
	}
	if kind != models.CallAudio && kind != models.CallVideo {
		return fmt.Errorf("call type %q: %w", req.CallType, models.ErrBadPayload)
	}
	if req.ChatID <= 0 {
		return fmt.Errorf("chat id %d: %w", req.ChatID, models.ErrBadPayload)
	}
	callID := req.CallID
	if callID == "" {
		callID = uuid.NewString()
	}
	if _, exists, err := c.calls.Get(ctx, callID); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("call %s already exists: %w", callID, models.ErrInvalidState)
	}

	caller, err := c.users.GetUser(ctx, userID)
	if err != nil {
		return notFound(err, "caller %d", userID)
	}

	var invitees []int
	var chatName string
	switch chatType {
	case models.ChatTypeChannel:
		channel, err := c.channels.GetChannel(ctx, req.ChatID)
		if err != nil {
			return notFound(err, "channel %d", req.ChatID)
		}
		members, err := c.channels.MemberIDs(ctx, req.ChatID)
		if err != nil {
			return fmt.Errorf("channel %d members: %w", req.ChatID, err)
		}
		member := false
		for _, id := range members {
			if id == userID {
				member = true
				continue
			}
			invitees = append(invitees, id)
		}
		if !member {
			return fmt.Errorf("user %d not in channel %d: %w", userID, req.ChatID, models.ErrForbidden)
		}
		chatName = channel.Name
	default:
		if req.ChatID == userID {
			return fmt.Errorf("dm call to self: %w", models.ErrBadPayload)
		}
		peer, err := c.users.GetUser(ctx, req.ChatID)
		if err != nil {
			return notFound(err, "dm peer %d", req.ChatID)
		}
		invitees = []int{peer.ID}
	}

	busy := []int{userID}
	if chatType == models.ChatTypeDM {
		busy = append(busy, req.ChatID)
	}
	for _, id := range busy {
		if other, ok := c.liveCallOf(ctx, id); ok {
			log.Printf("call: busy call_id=%s user_id=%d in_call=%s", callID, id, other)
			return c.fabric.Publish(ctx, fabric.ConnGroup(connID), models.Event{
				Name: models.EventCallBusy,
				Data: BusyPayload{CallID: callID, UserID: id},
			})
		}
	}

	now := c.clock.Now()
	s := newSession(callID, req.ChatID, chatType, kind, userID, now)
	s.ChatName = chatName
	for _, id := range invitees {
		s.invited[id] = struct{}{}
	}
	s.participants[userID] = &Participant{
		UserID:       userID,
		ConnID:       connID,
		Name:         caller.Name,
		AudioEnabled: true,
		VideoEnabled: kind == models.CallVideo,
		JoinedAt:     now,
	}

	started := now.UTC()
	msg, err := c.messages.CreateCallMessage(ctx, userID, req.ChatID, chatType, models.CallMetadata{
		CallID:           callID,
		CallType:         kind,
		CallStatus:       models.CallStatusCalling,
		InitiatorID:      userID,
		ParticipantCount: models.IntPtr(1),
		AcceptedUsers:    s.Accepted(),
		StartedAt:        &started,
	})
	if err != nil {
		log.Printf("call: create call message failed call_id=%s: %v", callID, err)
	} else {
		s.MessageID = msg.ID
		c.broadcastMessage(ctx, s, msg)
	}

	if err := c.calls.Set(ctx, callID, s); err != nil {
		return fmt.Errorf("store call %s: %w", callID, err)
	}
	c.armTimer(s)

	for _, id := range invitees {
		if err := c.fabric.Publish(ctx, fabric.UserGroup(id), models.Event{
			Name: models.EventIncomingCall,
			Data: IncomingCallPayload{
				CallID:      callID,
				ChatID:      s.chatIDFor(id),
				ChatType:    chatType,
				CallType:    kind,
				FromUserID:  userID,
				FromName:    caller.Name,
				ChannelName: chatName,
				MessageID:   s.MessageID,
			},
		}); err != nil {
			log.Printf("call: incoming-call failed call_id=%s user_id=%d: %v", callID, id, err)
		}
	}
	c.notifyOffline(ctx, s, caller.Name, invitees)
	c.reportActive(ctx)

	log.Printf("call: initiated call_id=%s chat_type=%s chat_id=%d initiator=%d invitees=%d", callID, chatType, req.ChatID, userID, len(invitees))
	return nil
}

// Accept joins an invited (or previously accepted) user to the call.
func (c *Coordinator) Accept(ctx context.Context, connID string, userID int, callID string) error {
	s, err := c.session(ctx, callID)
	if err != nil {
		return err
	}
	if _, in := s.participant(userID); in {
		return fmt.Errorf("user %d already in call %s: %w", userID, callID, models.ErrInvalidState)
	}
	if !s.isInvited(userID) && !s.hasAccepted(userID) {
		return fmt.Errorf("user %d not invited to call %s: %w", userID, callID, models.ErrForbidden)
	}

	now := c.clock.Now()
	first := s.AcceptedAt == nil
	if first {
		c.stopTimer(s)
		at := now
		s.AcceptedAt = &at
	}
	delete(s.invited, userID)
	delete(s.left, userID)
	s.markAccepted(userID)
	p := c.join(ctx, s, userID, connID, now)
	s.Status = StatusConnected

	patch := models.CallMetadata{
		ParticipantCount: models.IntPtr(len(s.accepted)),
		AcceptedUsers:    s.Accepted(),
	}
	if first {
		patch.CallStatus = models.CallStatusOngoing
	}
	c.refreshMessage(ctx, s, patch)

	recipients := append(s.participantIDs(), s.Invited()...)
	c.publishUsers(ctx, recipients, models.Event{
		Name: models.EventCallAccepted,
		Data: MembershipPayload{
			CallID:           callID,
			UserID:           userID,
			Name:             p.Name,
			ParticipantCount: len(s.participants),
			Participants:     s.Participants(),
		},
	}, connID)
	c.sendSnapshot(ctx, s, connID)

	log.Printf("call: accepted call_id=%s user_id=%d first=%t participants=%d", callID, userID, first, len(s.participants))
	return nil
}

// Decline removes a ringing invitee. A declined DM ends immediately; a
// channel call ends once nobody is ringing and at most one user is in it.
func (c *Coordinator) Decline(ctx context.Context, connID string, userID int, callID string) error {
	s, err := c.session(ctx, callID)
	if err != nil {
		return err
	}
	if !s.isInvited(userID) {
		return fmt.Errorf("user %d not ringing in call %s: %w", userID, callID, models.ErrForbidden)
	}
	delete(s.invited, userID)

	c.publishUsers(ctx, append(s.participantIDs(), userID), models.Event{
		Name: models.EventCallDeclined,
		Data: DeclinedPayload{CallID: callID, UserID: userID},
	})

	if s.ChatType == models.ChatTypeDM || (len(s.invited) == 0 && len(s.participants) <= 1) {
		c.end(ctx, s, ReasonDeclined)
	}
	return nil
}

// Leave removes a participant (end-call). Fewer than two participants left
// tears the call down.
func (c *Coordinator) Leave(ctx context.Context, connID string, userID int, callID string) error {
	s, err := c.session(ctx, callID)
	if err != nil {
		return err
	}
	if _, in := s.participant(userID); !in {
		return fmt.Errorf("user %d not in call %s: %w", userID, callID, models.ErrForbidden)
	}
	c.leave(ctx, s, userID, ReasonHangup)
	return nil
}

// Disconnect treats a closed connection as leaving every call it joined.
func (c *Coordinator) Disconnect(ctx context.Context, connID string, userID int) {
	var joined []*Session
	_ = c.calls.Range(ctx, func(_ string, s *Session) bool {
		if p, ok := s.participant(userID); ok && p.ConnID == connID {
			joined = append(joined, s)
		}
		return true
	})
	for _, s := range joined {
		c.leave(ctx, s, userID, ReasonDisconnect)
	}
}

// CallingTimeout ends a call that is still ringing.
func (c *Coordinator) CallingTimeout(ctx context.Context, callID string) error {
	s, err := c.session(ctx, callID)
	if err != nil {
		return err
	}
	c.expire(ctx, s)
	return nil
}

// Rejoin re-admits a former participant to a connected channel call.
func (c *Coordinator) Rejoin(ctx context.Context, connID string, userID int, callID string) error {
	s, err := c.session(ctx, callID)
	if err != nil {
		return err
	}
	if s.ChatType != models.ChatTypeChannel {
		return fmt.Errorf("rejoin dm call %s: %w", callID, models.ErrInvalidState)
	}
	if s.Status != StatusConnected {
		return fmt.Errorf("rejoin call %s in status %s: %w", callID, s.Status, models.ErrInvalidState)
	}
	if _, in := s.participant(userID); in {
		return fmt.Errorf("user %d already in call %s: %w", userID, callID, models.ErrInvalidState)
	}
	if !s.hasLeft(userID) && !s.hasAccepted(userID) {
		return fmt.Errorf("user %d never joined call %s: %w", userID, callID, models.ErrForbidden)
	}

	delete(s.left, userID)
	s.markAccepted(userID)
	p := c.join(ctx, s, userID, connID, c.clock.Now())
	c.refreshMessage(ctx, s, models.CallMetadata{
		ParticipantCount: models.IntPtr(len(s.accepted)),
		AcceptedUsers:    s.Accepted(),
	})

	c.publishUsers(ctx, s.participantIDs(), models.Event{
		Name: models.EventCallAccepted,
		Data: MembershipPayload{
			CallID:           callID,
			UserID:           userID,
			Name:             p.Name,
			Rejoined:         true,
			ParticipantCount: len(s.participants),
			Participants:     s.Participants(),
		},
	}, connID)
	c.sendSnapshot(ctx, s, connID)

	log.Printf("call: rejoined call_id=%s user_id=%d participants=%d", callID, userID, len(s.participants))
	return nil
}

// Shutdown ends every live call so no durable row stays ongoing.
func (c *Coordinator) Shutdown(ctx context.Context) {
	var live []*Session
	_ = c.calls.Range(ctx, func(_ string, s *Session) bool {
		live = append(live, s)
		return true
	})
	for _, s := range live {
		c.end(ctx, s, ReasonShutdown)
	}
}

// Snapshot renders one live call.
func (c *Coordinator) Snapshot(ctx context.Context, callID string) (View, error) {
	s, err := c.session(ctx, callID)
	if err != nil {
		return View{}, err
	}
	return c.view(ctx, s), nil
}

// ActiveCalls renders every live call.
func (c *Coordinator) ActiveCalls(ctx context.Context) []View {
	views := []View{}
	_ = c.calls.Range(ctx, func(_ string, s *Session) bool {
		views = append(views, c.view(ctx, s))
		return true
	})
	return views
}

func (c *Coordinator) view(ctx context.Context, s *Session) View {
	v := View{
		CallID:        s.ID,
		ChatID:        s.ChatID,
		ChatType:      s.ChatType,
		CallType:      s.Kind,
		Status:        s.Status,
		InitiatorID:   s.InitiatorID,
		MessageID:     s.MessageID,
		StartedAt:     s.StartedAt,
		AcceptedAt:    s.AcceptedAt,
		Invited:       s.Invited(),
		AcceptedUsers: s.Accepted(),
		Participants:  s.Participants(),
	}
	if sharer, ok, _ := c.sharers.Get(ctx, s.ID); ok {
		v.ScreenSharerID = sharer
	}
	if rc, ok, _ := c.remote.Get(ctx, s.ID); ok {
		v.RemoteControl = &rc
	}
	return v
}

func (c *Coordinator) join(ctx context.Context, s *Session, userID int, connID string, now time.Time) *Participant {
	name := ""
	if user, err := c.users.GetUser(ctx, userID); err != nil {
		log.Printf("call: name lookup failed user_id=%d: %v", userID, err)
	} else {
		name = user.Name
	}
	p := &Participant{
		UserID:       userID,
		ConnID:       connID,
		Name:         name,
		AudioEnabled: true,
		VideoEnabled: s.Kind == models.CallVideo,
		JoinedAt:     now,
	}
	s.participants[userID] = p
	return p
}

func (c *Coordinator) leave(ctx context.Context, s *Session, userID int, reason string) {
	c.releaseMedia(ctx, s, userID)
	delete(s.participants, userID)
	s.left[userID] = struct{}{}

	if len(s.participants) < 2 {
		c.end(ctx, s, reason)
		return
	}
	c.publishUsers(ctx, append(s.participantIDs(), userID), models.Event{
		Name: models.EventParticipantLeft,
		Data: MembershipPayload{
			CallID:           s.ID,
			UserID:           userID,
			ParticipantCount: len(s.participants),
			Participants:     s.Participants(),
		},
	})
	log.Printf("call: left call_id=%s user_id=%d reason=%s participants=%d", s.ID, userID, reason, len(s.participants))
}

func (c *Coordinator) expire(ctx context.Context, s *Session) {
	current, ok, err := c.calls.Get(ctx, s.ID)
	if err != nil || !ok || current != s || s.Status != StatusCalling {
		return
	}
	c.end(ctx, s, ReasonTimeout)
}

// end tears a session down: durable outcome, media release, call-ended to
// everyone the call touched, audit and metrics.
func (c *Coordinator) end(ctx context.Context, s *Session, reason string) {
	if s.Status == StatusEnded {
		return
	}
	c.stopTimer(s)
	if err := c.calls.Delete(ctx, s.ID); err != nil {
		log.Printf("call: delete session failed call_id=%s: %v", s.ID, err)
	}
	s.Status = StatusEnded

	now := c.clock.Now()
	duration := 0
	if s.AcceptedAt != nil {
		duration = int(now.Sub(*s.AcceptedAt) / time.Second)
		if duration < 1 {
			duration = 1
		}
	}
	accepted := len(s.accepted)
	outcome := models.CallStatusEnded
	view := ""
	if s.ChatType == models.ChatTypeDM && accepted <= 1 {
		outcome = models.CallStatusNoAnswer
		view = models.RecipientViewMissed
	}

	ended := now.UTC()
	c.refreshMessage(ctx, s, models.CallMetadata{
		CallStatus:       outcome,
		DurationSec:      models.IntPtr(duration),
		ParticipantCount: models.IntPtr(accepted),
		AcceptedUsers:    s.Accepted(),
		RecipientView:    view,
		EndedAt:          &ended,
	})

	if err := c.sharers.Delete(ctx, s.ID); err != nil {
		log.Printf("call: clear screen share failed call_id=%s: %v", s.ID, err)
	}
	if err := c.remote.Delete(ctx, s.ID); err != nil {
		log.Printf("call: clear remote control failed call_id=%s: %v", s.ID, err)
	}

	c.publishUsers(ctx, s.audience(), models.Event{
		Name: models.EventCallEnded,
		Data: EndedPayload{
			CallID:           s.ID,
			Reason:           reason,
			Status:           outcome,
			DurationSec:      duration,
			ParticipantCount: accepted,
		},
	})

	c.audit.EmitCallEnded(ctx, s.InitiatorID, telemetry.CallAudit{
		CallID:           s.ID,
		ChatID:           s.ChatID,
		ChatType:         string(s.ChatType),
		CallType:         string(s.Kind),
		Outcome:          outcome,
		Reason:           reason,
		DurationSec:      duration,
		ParticipantCount: accepted,
		AcceptedUsers:    s.Accepted(),
		MessageID:        s.MessageID,
	})
	observability.IncCallEnded(string(s.ChatType), outcome)
	c.reportActive(ctx)

	log.Printf("call: ended call_id=%s reason=%s outcome=%s duration_sec=%d accepted=%d", s.ID, reason, outcome, duration, accepted)
}

func (c *Coordinator) armTimer(s *Session) {
	s.timer = c.clock.AfterFunc(c.timeout, func() {
		c.schedule(func(ctx context.Context) {
			c.expire(ctx, s)
		})
	})
}

func (c *Coordinator) stopTimer(s *Session) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (c *Coordinator) session(ctx context.Context, callID string) (*Session, error) {
	if callID == "" {
		return nil, fmt.Errorf("missing call id: %w", models.ErrBadPayload)
	}
	s, ok, err := c.calls.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("call %s: %w", callID, models.ErrNotFound)
	}
	return s, nil
}

func (c *Coordinator) liveCallOf(ctx context.Context, userID int) (string, bool) {
	found := ""
	_ = c.calls.Range(ctx, func(id string, s *Session) bool {
		if _, in := s.participant(userID); in {
			found = id
			return false
		}
		return true
	})
	return found, found != ""
}

func (c *Coordinator) sendSnapshot(ctx context.Context, s *Session, connID string) {
	payload := SnapshotPayload{
		CallID:       s.ID,
		ChatID:       s.ChatID,
		ChatType:     s.ChatType,
		CallType:     s.Kind,
		ChatName:     s.ChatName,
		StartedAt:    s.AcceptedAt,
		Participants: s.Participants(),
	}
	if sharer, ok, _ := c.sharers.Get(ctx, s.ID); ok {
		payload.ScreenSharerID = sharer
	}
	if err := c.fabric.Publish(ctx, fabric.ConnGroup(connID), models.Event{
		Name: models.EventCallParticipants,
		Data: payload,
	}); err != nil {
		log.Printf("call: snapshot failed call_id=%s conn=%s: %v", s.ID, connID, err)
	}
}

// publishUsers sends ev once to each user's group, skipping duplicates.
func (c *Coordinator) publishUsers(ctx context.Context, userIDs []int, ev models.Event, exclude ...string) {
	sent := make(map[int]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := sent[id]; dup {
			continue
		}
		sent[id] = struct{}{}
		if err := c.fabric.Publish(ctx, fabric.UserGroup(id), ev, exclude...); err != nil {
			log.Printf("call: publish %s failed user_id=%d: %v", ev.Name, id, err)
		}
	}
}

// refreshMessage merges patch into the durable call message and broadcasts
// the row as stored.
func (c *Coordinator) refreshMessage(ctx context.Context, s *Session, patch models.CallMetadata) {
	if s.MessageID == 0 {
		return
	}
	msg, err := c.messages.MergeMetadata(ctx, s.MessageID, patch)
	if err != nil {
		log.Printf("call: merge metadata failed call_id=%s message_id=%d: %v", s.ID, s.MessageID, err)
		return
	}
	c.broadcastMessage(ctx, s, msg)
}

func (c *Coordinator) broadcastMessage(ctx context.Context, s *Session, msg models.Message) {
	ev := models.Event{Name: models.EventMessageUpdated, Data: msg}
	if s.ChatType == models.ChatTypeChannel {
		if err := c.fabric.Publish(ctx, fabric.ChannelGroup(s.ChatID), ev); err != nil {
			log.Printf("call: message-updated failed message_id=%d: %v", msg.ID, err)
		}
		return
	}
	c.publishUsers(ctx, []int{s.InitiatorID, s.ChatID}, ev)
}

func (c *Coordinator) notifyOffline(ctx context.Context, s *Session, callerName string, invitees []int) {
	if c.push == nil {
		return
	}
	var offline []int
	for _, id := range invitees {
		if c.online == nil || !c.online.IsOnline(ctx, id) {
			offline = append(offline, id)
		}
	}
	if len(offline) == 0 {
		return
	}
	tokens, err := c.users.PushTokens(ctx, offline)
	if err != nil {
		log.Printf("call: push token lookup failed call_id=%s: %v", s.ID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := "Incoming call"
	if s.Kind == models.CallVideo {
		title = "Incoming video call"
	}
	body := callerName + " is calling"
	if s.ChatType == models.ChatTypeChannel {
		body += " in " + s.ChatName
	}
	data := map[string]string{
		"call_id":   s.ID,
		"chat_id":   strconv.Itoa(s.ChatID),
		"chat_type": string(s.ChatType),
		"call_type": string(s.Kind),
		"from_id":   strconv.Itoa(s.InitiatorID),
	}

	pctx := context.WithoutCancel(ctx)
	c.pushes.Add(1)
	go func() {
		defer c.pushes.Done()
		res := c.push.SendToUsers(pctx, tokens, title, body, data)
		if !res.Success {
			log.Printf("call: push failed call_id=%s: %s", s.ID, res.Error)
		}
	}()
}

func (c *Coordinator) reportActive(ctx context.Context) {
	n := 0
	_ = c.calls.Range(ctx, func(string, *Session) bool {
		n++
		return true
	})
	observability.SetActiveCalls(n)
}

func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, repositories.ErrUserNotFound) || errors.Is(err, repositories.ErrChannelNotFound) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
