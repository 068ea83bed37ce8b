package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"realtime-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts the user fields the engine reads and writes.
type UserRepository interface {
	Exists(ctx context.Context, userID int) (bool, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
	UpdatePresence(ctx context.Context, presence models.Presence) error
	ListPresence(ctx context.Context) ([]models.Presence, error)
	PushTokens(ctx context.Context, userIDs []int) ([]string, error)
	MarkAllOffline(ctx context.Context) (int64, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Exists checks whether a user row is present.
func (r *UserRepo) Exists(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID)
	return exists, err
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, name, is_online, is_away, last_seen FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdatePresence persists the presence fields of one user.
func (r *UserRepo) UpdatePresence(ctx context.Context, presence models.Presence) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=$2, is_away=$3, last_seen=$4 WHERE id=$1`,
		presence.UserID, presence.IsOnline, presence.IsAway, presence.LastSeen)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListPresence returns the persisted presence of every user.
func (r *UserRepo) ListPresence(ctx context.Context) ([]models.Presence, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, name, is_online, is_away, last_seen FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Presence
	for rows.Next() {
		var user models.User
		if err := rows.StructScan(&user); err != nil {
			return nil, err
		}
		result = append(result, models.Presence{
			UserID:   user.ID,
			IsOnline: user.IsOnline,
			IsAway:   user.IsAway,
			LastSeen: user.LastSeen,
		})
	}
	return result, rows.Err()
}

// PushTokens returns every registered device token of the given users.
func (r *UserRepo) PushTokens(ctx context.Context, userIDs []int) ([]string, error) {
	if len(userIDs) == 0 {
		return []string{}, nil
	}
	var tokens []string
	err := r.db.SelectContext(ctx, &tokens, `SELECT token FROM user_push_tokens WHERE user_id = ANY($1) ORDER BY user_id, token`, pq.Array(userIDs))
	return tokens, err
}

// MarkAllOffline flips users still flagged online by a previous process to
// offline, stamping last_seen.
func (r *UserRepo) MarkAllOffline(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=FALSE, is_away=FALSE, last_seen=COALESCE(last_seen, NOW()) WHERE is_online`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
