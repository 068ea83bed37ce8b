package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository covers the durable call message.
type MessageRepository interface {
	CreateCallMessage(ctx context.Context, senderID int, chatID int, chatType models.ChatType, meta models.CallMetadata) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	MergeMetadata(ctx context.Context, messageID int, patch models.CallMetadata) (models.Message, error)
	CloseStaleCalls(ctx context.Context) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, channel_id, recipient_id, sender_id, type, content, metadata, created_at`

// CreateCallMessage stores the durable row that mirrors a call session.
func (r *MessageRepo) CreateCallMessage(ctx context.Context, senderID int, chatID int, chatType models.ChatType, meta models.CallMetadata) (models.Message, error) {
	body, err := json.Marshal(meta)
	if err != nil {
		return models.Message{}, fmt.Errorf("encode call metadata: %w", err)
	}

	var channelID, recipientID *int
	if chatType == models.ChatTypeChannel {
		channelID = &chatID
	} else {
		recipientID = &chatID
	}

	var msg models.Message
	err = r.db.GetContext(ctx, &msg, `INSERT INTO messages (channel_id, recipient_id, sender_id, type, content, metadata)
        VALUES ($1, $2, $3, $4, '', $5::jsonb) RETURNING `+messageColumns,
		channelID, recipientID, senderID, models.MessageTypeCall, string(body))
	return msg, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MergeMetadata merges patch into the stored metadata inside the database so
// concurrent writers only ever replace the fields they set, and returns the
// row as it is after the merge.
func (r *MessageRepo) MergeMetadata(ctx context.Context, messageID int, patch models.CallMetadata) (models.Message, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return models.Message{}, fmt.Errorf("encode call metadata: %w", err)
	}

	var msg models.Message
	err = r.db.GetContext(ctx, &msg, `UPDATE messages SET metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb
        WHERE id=$1 RETURNING `+messageColumns, messageID, string(body))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// CloseStaleCalls ends call messages left calling/ongoing by a previous
// process; live call state does not survive a restart.
func (r *MessageRepo) CloseStaleCalls(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages
        SET metadata = metadata || jsonb_build_object('call_status', $1::text, 'ended_at', to_jsonb(NOW()))
        WHERE type=$2 AND metadata->>'call_status' IN ($3, $4)`,
		models.CallStatusEnded, models.MessageTypeCall, models.CallStatusCalling, models.CallStatusOngoing)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
