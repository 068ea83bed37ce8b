package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
)

// MessageStore keeps call messages in memory and merges metadata field by
// field like the database does.
type MessageStore struct {
	mu       sync.Mutex
	nextID   int
	messages map[int]models.Message
	meta     map[int]map[string]json.RawMessage
	Merges   int
}

func NewMessageStore() *MessageStore {
	return &MessageStore{nextID: 100, messages: make(map[int]models.Message), meta: make(map[int]map[string]json.RawMessage)}
}

func (s *MessageStore) CreateCallMessage(_ context.Context, senderID int, chatID int, chatType models.ChatType, meta models.CallMetadata) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	msg := models.Message{ID: s.nextID, SenderID: senderID, Type: models.MessageTypeCall, CreatedAt: time.Now()}
	target := chatID
	if chatType == models.ChatTypeChannel {
		msg.ChannelID = &target
	} else {
		msg.RecipientID = &target
	}
	s.messages[msg.ID] = msg
	s.meta[msg.ID] = make(map[string]json.RawMessage)
	if err := s.mergeLocked(msg.ID, meta); err != nil {
		return models.Message{}, err
	}
	return s.rowLocked(msg.ID), nil
}

func (s *MessageStore) GetMessage(_ context.Context, messageID int) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[messageID]; !ok {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	return s.rowLocked(messageID), nil
}

func (s *MessageStore) MergeMetadata(_ context.Context, messageID int, patch models.CallMetadata) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[messageID]; !ok {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	s.Merges++
	if err := s.mergeLocked(messageID, patch); err != nil {
		return models.Message{}, err
	}
	return s.rowLocked(messageID), nil
}

func (s *MessageStore) CloseStaleCalls(context.Context) (int64, error) {
	return 0, nil
}

// Metadata decodes the current metadata of a message.
func (s *MessageStore) Metadata(messageID int) models.CallMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	var meta models.CallMetadata
	_ = json.Unmarshal(s.rowLocked(messageID).Metadata, &meta)
	return meta
}

func (s *MessageStore) mergeLocked(id int, patch models.CallMetadata) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		s.meta[id][k] = v
	}
	return nil
}

func (s *MessageStore) rowLocked(id int) models.Message {
	msg := s.messages[id]
	body, _ := json.Marshal(s.meta[id])
	msg.Metadata = body
	return msg
}
