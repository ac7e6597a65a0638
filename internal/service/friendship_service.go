package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

type friendshipRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	FindBetween(ctx context.Context, userA, userB string) (*models.Friendship, error)
	AcceptedBetween(ctx context.Context, userA, userB string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error
	ListFriends(ctx context.Context, userID string) ([]models.Friend, error)
	ListPendingFor(ctx context.Context, userID string) ([]models.Friendship, error)
}

type friendUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Search(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// FriendshipService manages friend requests and the confirmed friend list.
type FriendshipService struct {
	repo      friendshipRepository
	users     friendUserRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFriendshipService constructs the service.
func NewFriendshipService(repo friendshipRepository, users friendUserRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *FriendshipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FriendshipService{
		repo:      repo,
		users:     users,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// FriendRequestInput identifies the user to befriend.
type FriendRequestInput struct {
	AddresseeID string `json:"addressee_id" validate:"required"`
}

// RespondInput accepts or declines a pending request.
type RespondInput struct {
	Accept bool `json:"accept"`
}

// Request creates a PENDING friendship from the caller to the addressee.
func (s *FriendshipService) Request(ctx context.Context, callerID string, input FriendRequestInput) (*models.Friendship, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid friend request")
	}
	if input.AddresseeID == callerID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot befriend yourself")
	}

	if _, err := s.users.FindByID(ctx, input.AddresseeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load addressee")
	}

	existing, err := s.repo.FindBetween(ctx, callerID, input.AddresseeID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing friendship")
	}
	if existing != nil {
		switch existing.Status {
		case models.FriendshipAccepted:
			return nil, appErrors.Clone(appErrors.ErrConflict, "already friends with that user")
		case models.FriendshipPending:
			return nil, appErrors.Clone(appErrors.ErrConflict, "a friend request between these users is already pending")
		}
	}

	friendship := &models.Friendship{
		RequesterID: callerID,
		AddresseeID: input.AddresseeID,
		Status:      models.FriendshipPending,
	}
	if err := s.repo.Create(ctx, friendship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create friend request")
	}
	return friendship, nil
}

// Respond lets the addressee accept or decline a pending request. Only the
// addressee may respond; the requester cannot accept on their own behalf.
func (s *FriendshipService) Respond(ctx context.Context, callerID, friendshipID string, input RespondInput) (*models.Friendship, error) {
	friendship, err := s.repo.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "friend request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load friend request")
	}
	if friendship.AddresseeID != callerID {
		return nil, appErrors.Clone(appErrors.ErrOwnership, "only the addressee can respond to a friend request")
	}
	if friendship.Status != models.FriendshipPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("friend request already %s", friendship.Status))
	}

	status := models.FriendshipDeclined
	if input.Accept {
		status = models.FriendshipAccepted
	}
	if err := s.repo.UpdateStatus(ctx, friendshipID, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update friend request")
	}
	friendship.Status = status

	if s.cache != nil {
		s.cache.Invalidate(ctx, friendsCacheKey(friendship.RequesterID))
		s.cache.Invalidate(ctx, friendsCacheKey(friendship.AddresseeID))
	}
	return friendship, nil
}

// ListFriends returns the caller's accepted friends, cached briefly since
// the list changes far less often than it is read.
func (s *FriendshipService) ListFriends(ctx context.Context, callerID string) ([]models.Friend, error) {
	key := friendsCacheKey(callerID)
	if s.cache != nil {
		var cached []models.Friend
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	friends, err := s.repo.ListFriends(ctx, callerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list friends")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, friends, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache friend list", zap.String("user_id", callerID), zap.Error(err))
		}
	}
	return friends, nil
}

// ListPending returns requests awaiting the caller's response.
func (s *FriendshipService) ListPending(ctx context.Context, callerID string) ([]models.Friendship, error) {
	pending, err := s.repo.ListPendingFor(ctx, callerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending requests")
	}
	return pending, nil
}

// SearchUsers finds users by name or email so the caller can pick who to
// befriend.
func (s *FriendshipService) SearchUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	users, total, err := s.users.Search(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search users")
	}
	return users, total, nil
}

func friendsCacheKey(userID string) string {
	return fmt.Sprintf("friends:%s", userID)
}
