// Package delivery advances per-recipient message status and tells senders.
package delivery

import (
	"context"
	"fmt"
	"log"
	"sort"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
	"realtime-service/internal/observability"
	"realtime-service/internal/repositories"
)

// Propagator moves message_status rows forward along sent -> delivered ->
// seen. Backward or repeated transitions change nothing and notify nobody.
type Propagator struct {
	statuses repositories.MessageStatusRepository
	fabric   fabric.Publisher
}

func NewPropagator(statuses repositories.MessageStatusRepository, pub fabric.Publisher) *Propagator {
	return &Propagator{statuses: statuses, fabric: pub}
}

// MarkDelivered moves sent rows to delivered.
func (p *Propagator) MarkDelivered(ctx context.Context, messageIDs []int, userID int) error {
	ids := normalize(messageIDs)
	if len(ids) == 0 {
		return nil
	}
	changes, err := p.statuses.Advance(ctx, userID, ids, models.StatusSent, models.StatusDelivered)
	if err != nil {
		return fmt.Errorf("mark delivered user=%d: %w", userID, err)
	}
	p.notifySenders(ctx, userID, changes)
	return nil
}

// MarkSeen promotes sent rows to delivered without notifying, then every
// delivered row to seen, notifying the sender once per row. Each chat
// touched gets one messages-read summary.
func (p *Propagator) MarkSeen(ctx context.Context, messageIDs []int, userID int) error {
	ids := normalize(messageIDs)
	if len(ids) == 0 {
		return nil
	}
	promoted, err := p.statuses.Advance(ctx, userID, ids, models.StatusSent, models.StatusDelivered)
	if err != nil {
		return fmt.Errorf("promote before seen user=%d: %w", userID, err)
	}
	observability.AddDeliveryTransitions(string(models.StatusDelivered), len(promoted))

	seen, err := p.statuses.Advance(ctx, userID, ids, models.StatusDelivered, models.StatusSeen)
	if err != nil {
		return fmt.Errorf("mark seen user=%d: %w", userID, err)
	}
	p.notifySenders(ctx, userID, seen)
	p.summarize(ctx, userID, seen)
	return nil
}

// MarkAllSeenForChat marks every unread message of one chat as seen.
func (p *Propagator) MarkAllSeenForChat(ctx context.Context, chatID int, chatType models.ChatType, userID int) error {
	if !chatType.Valid() {
		return fmt.Errorf("chat type %q: %w", chatType, models.ErrBadPayload)
	}
	ids, err := p.statuses.UnreadMessageIDs(ctx, userID, chatID, chatType)
	if err != nil {
		return fmt.Errorf("unread lookup chat=%d user=%d: %w", chatID, userID, err)
	}
	if len(ids) == 0 {
		p.clearMentions(ctx, userID, chatID, chatType)
		return nil
	}
	return p.MarkSeen(ctx, ids, userID)
}

// MarkLastMessageSeen is sent by clients when the newest message of an open
// chat scrolls into view; everything before it is read too.
func (p *Propagator) MarkLastMessageSeen(ctx context.Context, chatID int, chatType models.ChatType, userID int) error {
	return p.MarkAllSeenForChat(ctx, chatID, chatType, userID)
}

// CatchUp marks everything still sent to a freshly connected user as
// delivered.
func (p *Propagator) CatchUp(ctx context.Context, userID int) error {
	ids, err := p.statuses.UndeliveredMessageIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("undelivered lookup user=%d: %w", userID, err)
	}
	return p.MarkDelivered(ctx, ids, userID)
}

func (p *Propagator) notifySenders(ctx context.Context, userID int, changes []models.StatusChange) {
	for _, ch := range changes {
		err := p.fabric.Publish(ctx, fabric.UserGroup(ch.SenderID), models.Event{
			Name: models.EventMessageStatusUpdated,
			Data: models.MessageStatusPayload{MessageID: ch.MessageID, UserID: userID, Status: ch.Status},
		})
		if err != nil {
			log.Printf("delivery: notify sender failed message_id=%d sender_id=%d: %v", ch.MessageID, ch.SenderID, err)
		}
	}
	if len(changes) > 0 {
		observability.AddDeliveryTransitions(string(changes[0].Status), len(changes))
	}
}

type chatKey struct {
	id  int
	typ models.ChatType
}

func (p *Propagator) summarize(ctx context.Context, userID int, seen []models.StatusChange) {
	byChat := make(map[chatKey][]int)
	var order []chatKey
	for _, ch := range seen {
		id, typ := ch.Chat()
		key := chatKey{id, typ}
		if _, ok := byChat[key]; !ok {
			order = append(order, key)
		}
		byChat[key] = append(byChat[key], ch.MessageID)
	}

	for _, key := range order {
		group := fabric.ChannelGroup(key.id)
		chatID := key.id
		if key.typ == models.ChatTypeDM {
			// the counter-party sees the chat under the reader's id
			group = fabric.UserGroup(key.id)
			chatID = userID
		}
		err := p.fabric.Publish(ctx, group, models.Event{
			Name: models.EventMessagesRead,
			Data: models.MessagesReadPayload{ChatID: chatID, ChatType: key.typ, ReaderID: userID, MessageIDs: byChat[key]},
		})
		if err != nil {
			log.Printf("delivery: messages-read failed chat_id=%d: %v", key.id, err)
		}
		p.clearMentions(ctx, userID, key.id, key.typ)
	}
}

func (p *Propagator) clearMentions(ctx context.Context, userID, chatID int, chatType models.ChatType) {
	if _, err := p.statuses.ClearMentions(ctx, userID, chatID, chatType); err != nil {
		log.Printf("delivery: clear mentions failed chat_id=%d user_id=%d: %v", chatID, userID, err)
	}
}

func normalize(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
