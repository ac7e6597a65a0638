package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
)

// FriendshipRepository persists friendships. One row exists per pair; the
// requester/addressee ordering is preserved for response semantics.
type FriendshipRepository struct {
	db *sqlx.DB
}

// NewFriendshipRepository constructs a friendship repository.
func NewFriendshipRepository(db *sqlx.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

const friendshipColumns = "id, requester_id, addressee_id, status, created_at, updated_at"

// Create inserts a pending friend request.
func (r *FriendshipRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	if friendship.ID == "" {
		friendship.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if friendship.CreatedAt.IsZero() {
		friendship.CreatedAt = now
	}
	friendship.UpdatedAt = now
	const query = `INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
VALUES (:id, :requester_id, :addressee_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, friendship); err != nil {
		return fmt.Errorf("create friendship: %w", err)
	}
	return nil
}

// GetByID fetches a friendship row.
func (r *FriendshipRepository) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	query := fmt.Sprintf("SELECT %s FROM friendships WHERE id = $1 LIMIT 1", friendshipColumns)
	var friendship models.Friendship
	if err := r.db.GetContext(ctx, &friendship, query, id); err != nil {
		return nil, err
	}
	return &friendship, nil
}

// FindBetween returns the row linking two users regardless of ordering.
func (r *FriendshipRepository) FindBetween(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	query := fmt.Sprintf("SELECT %s FROM friendships WHERE (requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1) LIMIT 1", friendshipColumns)
	var friendship models.Friendship
	if err := r.db.GetContext(ctx, &friendship, query, userA, userB); err != nil {
		return nil, err
	}
	return &friendship, nil
}

// AcceptedBetween reports whether an accepted friendship links two users in
// either row order.
func (r *FriendshipRepository) AcceptedBetween(ctx context.Context, userA, userB string) (bool, error) {
	const query = `SELECT COUNT(*) FROM friendships WHERE status = 'ACCEPTED' AND ((requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userA, userB); err != nil {
		return false, fmt.Errorf("check accepted friendship: %w", err)
	}
	return count > 0, nil
}

// UpdateStatus transitions a friendship to a new status.
func (r *FriendshipRepository) UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	const query = `UPDATE friendships SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update friendship status: %w", err)
	}
	return nil
}

// ListFriends enumerates the accepted friends of a user from either side of
// the pair.
func (r *FriendshipRepository) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	const query = `SELECT u.id AS user_id, u.email, u.full_name
FROM friendships f
JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
WHERE f.status = 'ACCEPTED' AND (f.requester_id = $1 OR f.addressee_id = $1)
ORDER BY u.full_name ASC`
	var friends []models.Friend
	if err := r.db.SelectContext(ctx, &friends, query, userID); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// ListPendingFor returns requests awaiting a response from the user.
func (r *FriendshipRepository) ListPendingFor(ctx context.Context, userID string) ([]models.Friendship, error) {
	query := fmt.Sprintf("SELECT %s FROM friendships WHERE addressee_id = $1 AND status = 'PENDING' ORDER BY created_at ASC", friendshipColumns)
	var pending []models.Friendship
	if err := r.db.SelectContext(ctx, &pending, query, userID); err != nil {
		return nil, fmt.Errorf("list pending friendships: %w", err)
	}
	return pending, nil
}
