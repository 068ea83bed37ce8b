package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"realtime-service/internal/models"
)

// MessageStatusRepository manages per-recipient delivery rows.
type MessageStatusRepository interface {
	Advance(ctx context.Context, userID int, messageIDs []int, from, to models.DeliveryStatus) ([]models.StatusChange, error)
	UnreadMessageIDs(ctx context.Context, userID int, chatID int, chatType models.ChatType) ([]int, error)
	UndeliveredMessageIDs(ctx context.Context, userID int) ([]int, error)
	ClearMentions(ctx context.Context, userID int, chatID int, chatType models.ChatType) (int64, error)
}

// MessageStatusRepo is a sqlx-backed implementation.
type MessageStatusRepo struct {
	db *sqlx.DB
}

// NewMessageStatusRepo constructs a MessageStatusRepo.
func NewMessageStatusRepo(db *sqlx.DB) *MessageStatusRepo {
	return &MessageStatusRepo{db: db}
}

// Advance moves the user's rows for messageIDs from one status to the next
// and returns only the rows that changed. Rows in any other status, and ids
// without a row, are left alone.
func (r *MessageStatusRepo) Advance(ctx context.Context, userID int, messageIDs []int, from, to models.DeliveryStatus) ([]models.StatusChange, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var changes []models.StatusChange
	err := r.db.SelectContext(ctx, &changes, `UPDATE message_status ms SET status=$3, updated_at=NOW()
        FROM messages m
        WHERE ms.message_id = m.id AND ms.user_id=$1 AND ms.message_id = ANY($2) AND ms.status=$4
        RETURNING ms.message_id, m.sender_id, m.channel_id, m.recipient_id, ms.status`,
		userID, pq.Array(messageIDs), to, from)
	return changes, err
}

// chatFilter restricts status rows (alias st) joined with their message
// (alias msg) to one chat as seen by the recipient; $2 is the chat id.
func chatFilter(chatType models.ChatType, st, msg string) string {
	if chatType == models.ChatTypeChannel {
		return msg + `.channel_id=$2`
	}
	return msg + `.channel_id IS NULL AND ` + msg + `.sender_id=$2 AND ` + msg + `.recipient_id=` + st + `.user_id`
}

// UnreadMessageIDs lists the user's not-yet-seen messages in a chat.
func (r *MessageStatusRepo) UnreadMessageIDs(ctx context.Context, userID int, chatID int, chatType models.ChatType) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT ms.message_id FROM message_status ms
        INNER JOIN messages m ON m.id = ms.message_id
        WHERE ms.user_id=$1 AND ms.status <> 'seen' AND `+chatFilter(chatType, "ms", "m")+`
        ORDER BY ms.message_id ASC`, userID, chatID)
	return ids, err
}

// UndeliveredMessageIDs lists every message still in sent for the user.
func (r *MessageStatusRepo) UndeliveredMessageIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT message_id FROM message_status WHERE user_id=$1 AND status='sent' ORDER BY message_id ASC`, userID)
	return ids, err
}

// ClearMentions drops the unread-mention flag for a fully read chat.
func (r *MessageStatusRepo) ClearMentions(ctx context.Context, userID int, chatID int, chatType models.ChatType) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE message_status ms SET has_unread_mentions = FALSE
        FROM messages m
        WHERE m.id = ms.message_id AND ms.user_id=$1 AND ms.has_unread_mentions = TRUE AND `+chatFilter(chatType, "ms", "m")+`
        AND NOT EXISTS (
            SELECT 1 FROM message_status u INNER JOIN messages um ON um.id = u.message_id
            WHERE u.user_id=$1 AND u.status <> 'seen' AND `+chatFilter(chatType, "u", "um")+`
        )`, userID, chatID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
