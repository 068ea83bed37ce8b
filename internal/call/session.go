package call

import (
	"sort"
	"time"

	"realtime-service/internal/models"
)

// Status is the in-memory lifecycle of a call session.
type Status string

const (
	StatusCalling   Status = "calling"
	StatusConnected Status = "connected"
	StatusEnded     Status = "ended"
)

// Participant is one user currently in the call, bound to the connection
// that joined.
type Participant struct {
	UserID        int       `json:"userId"`
	ConnID        string    `json:"-"`
	Name          string    `json:"name"`
	AudioEnabled  bool      `json:"audioEnabled"`
	VideoEnabled  bool      `json:"videoEnabled"`
	ScreenSharing bool      `json:"isScreenSharing"`
	JoinedAt      time.Time `json:"joinedAt"`
}

// Session is a live call. Sessions are owned by the engine loop and mutated
// in place; they are never shared across processes.
type Session struct {
	ID          string
	ChatID      int
	ChatType    models.ChatType
	ChatName    string
	Kind        models.CallKind
	Status      Status
	InitiatorID int
	MessageID   int
	StartedAt   time.Time
	AcceptedAt  *time.Time

	invited      map[int]struct{}
	accepted     []int
	left         map[int]struct{}
	participants map[int]*Participant
	timer        Timer
}

func newSession(id string, chatID int, chatType models.ChatType, kind models.CallKind, initiator int, now time.Time) *Session {
	return &Session{
		ID:           id,
		ChatID:       chatID,
		ChatType:     chatType,
		Kind:         kind,
		Status:       StatusCalling,
		InitiatorID:  initiator,
		StartedAt:    now,
		invited:      make(map[int]struct{}),
		accepted:     []int{initiator},
		left:         make(map[int]struct{}),
		participants: make(map[int]*Participant),
	}
}

func (s *Session) isInvited(userID int) bool {
	_, ok := s.invited[userID]
	return ok
}

func (s *Session) hasAccepted(userID int) bool {
	for _, id := range s.accepted {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *Session) hasLeft(userID int) bool {
	_, ok := s.left[userID]
	return ok
}

func (s *Session) participant(userID int) (*Participant, bool) {
	p, ok := s.participants[userID]
	return p, ok
}

func (s *Session) markAccepted(userID int) {
	if !s.hasAccepted(userID) {
		s.accepted = append(s.accepted, userID)
	}
}

// Invited returns the users still ringing, sorted.
func (s *Session) Invited() []int {
	return sortedKeys(s.invited)
}

// Accepted returns every user who has ever accepted, initiator first.
func (s *Session) Accepted() []int {
	return append([]int(nil), s.accepted...)
}

// Participants returns the users currently in the call ordered by join time.
func (s *Session) Participants() []Participant {
	out := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// audience is every user the call has touched: participants, invitees,
// accepted and departed users.
func (s *Session) audience() []int {
	set := make(map[int]struct{})
	for id := range s.participants {
		set[id] = struct{}{}
	}
	for id := range s.invited {
		set[id] = struct{}{}
	}
	for _, id := range s.accepted {
		set[id] = struct{}{}
	}
	for id := range s.left {
		set[id] = struct{}{}
	}
	return sortedKeys(set)
}

func (s *Session) participantIDs() []int {
	ids := make([]int, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// chatIDFor returns the chat id as userID sees it: the channel, or the DM
// counter-party.
func (s *Session) chatIDFor(userID int) int {
	if s.ChatType == models.ChatTypeDM && userID != s.InitiatorID {
		return s.InitiatorID
	}
	return s.ChatID
}

func sortedKeys(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// RemoteControl is the single remote-control session a call may hold. It
// is pending until the target grants it.
type RemoteControl struct {
	ControllerID int  `json:"controllerId"`
	TargetID     int  `json:"targetId"`
	Granted      bool `json:"granted"`
}

// Clock abstracts time for the calling-phase timer.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
