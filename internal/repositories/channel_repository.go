package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var ErrChannelNotFound = errors.New("channel not found")

// ChannelRepository resolves channel membership for invites and fan-out.
type ChannelRepository interface {
	GetChannel(ctx context.Context, channelID int) (models.Channel, error)
	MemberIDs(ctx context.Context, channelID int) ([]int, error)
	ChannelIDsForUser(ctx context.Context, userID int) ([]int, error)
}

// ChannelRepo is a sqlx implementation of ChannelRepository.
type ChannelRepo struct {
	db *sqlx.DB
}

// NewChannelRepo constructs a ChannelRepo.
func NewChannelRepo(db *sqlx.DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// GetChannel fetches a single channel.
func (r *ChannelRepo) GetChannel(ctx context.Context, channelID int) (models.Channel, error) {
	var channel models.Channel
	err := r.db.GetContext(ctx, &channel, `SELECT id, name, created_at FROM channels WHERE id=$1`, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Channel{}, ErrChannelNotFound
	}
	return channel, err
}

// MemberIDs lists the users belonging to a channel.
func (r *ChannelRepo) MemberIDs(ctx context.Context, channelID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM channel_members WHERE channel_id=$1 ORDER BY user_id ASC`, channelID)
	return ids, err
}

// ChannelIDsForUser lists the channels a user is a member of.
func (r *ChannelRepo) ChannelIDsForUser(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT channel_id FROM channel_members WHERE user_id=$1 ORDER BY channel_id ASC`, userID)
	return ids, err
}
