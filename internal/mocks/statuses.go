package mocks

import (
	"context"
	"sort"
	"sync"

	"realtime-service/internal/models"
)

type statusKey struct {
	message int
	user    int
}

// StatusStore is an in-memory message_status table.
type StatusStore struct {
	mu       sync.Mutex
	messages map[int]models.Message
	rows     map[statusKey]models.MessageStatus
	Cleared  []int
}

func NewStatusStore() *StatusStore {
	return &StatusStore{messages: make(map[int]models.Message), rows: make(map[statusKey]models.MessageStatus)}
}

// Add stores msg with one status row for recipient.
func (s *StatusStore) Add(msg models.Message, recipient int, status models.DeliveryStatus, mention bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = msg
	s.rows[statusKey{msg.ID, recipient}] = models.MessageStatus{MessageID: msg.ID, UserID: recipient, Status: status, HasUnreadMentions: mention}
}

// Status returns the current status of one row.
func (s *StatusStore) Status(messageID, userID int) models.DeliveryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[statusKey{messageID, userID}].Status
}

// Mentioned reports the has_unread_mentions flag of one row.
func (s *StatusStore) Mentioned(messageID, userID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[statusKey{messageID, userID}].HasUnreadMentions
}

func (s *StatusStore) Advance(_ context.Context, userID int, messageIDs []int, from, to models.DeliveryStatus) ([]models.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StatusChange
	for _, id := range messageIDs {
		key := statusKey{id, userID}
		row, ok := s.rows[key]
		if !ok || row.Status != from {
			continue
		}
		row.Status = to
		s.rows[key] = row
		msg := s.messages[id]
		out = append(out, models.StatusChange{MessageID: id, SenderID: msg.SenderID, ChannelID: msg.ChannelID, RecipientID: msg.RecipientID, Status: to})
	}
	return out, nil
}

func (s *StatusStore) UnreadMessageIDs(_ context.Context, userID int, chatID int, chatType models.ChatType) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchLocked(userID, chatID, chatType, func(r models.MessageStatus) bool { return r.Status != models.StatusSeen }), nil
}

func (s *StatusStore) UndeliveredMessageIDs(_ context.Context, userID int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for key, row := range s.rows {
		if key.user == userID && row.Status == models.StatusSent {
			ids = append(ids, key.message)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *StatusStore) ClearMentions(_ context.Context, userID int, chatID int, chatType models.ChatType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unread := s.matchLocked(userID, chatID, chatType, func(r models.MessageStatus) bool { return r.Status != models.StatusSeen })
	if len(unread) > 0 {
		return 0, nil
	}
	var n int64
	for _, id := range s.matchLocked(userID, chatID, chatType, func(r models.MessageStatus) bool { return r.HasUnreadMentions }) {
		key := statusKey{id, userID}
		row := s.rows[key]
		row.HasUnreadMentions = false
		s.rows[key] = row
		n++
	}
	if n > 0 {
		s.Cleared = append(s.Cleared, chatID)
	}
	return n, nil
}

func (s *StatusStore) matchLocked(userID, chatID int, chatType models.ChatType, keep func(models.MessageStatus) bool) []int {
	var ids []int
	for key, row := range s.rows {
		if key.user != userID || !keep(row) {
			continue
		}
		id, typ := s.messages[key.message].ChatID(userID)
		if id == chatID && typ == chatType {
			ids = append(ids, key.message)
		}
	}
	sort.Ints(ids)
	return ids
}
