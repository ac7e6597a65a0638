package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

type authRepoStub struct {
	usersByEmail  map[string]*models.User
	usersByID     map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
	auditEntries  []*models.AuditLog
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		usersByEmail:  map[string]*models.User{},
		usersByID:     map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (s *authRepoStub) addUser(user *models.User) {
	s.usersByEmail[user.Email] = user
	s.usersByID[user.ID] = user
}

func (s *authRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-created"
	}
	s.addUser(user)
	return nil
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.usersByID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if user, ok := s.usersByID[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (s *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := s.refreshTokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, stored := range s.refreshTokens {
		if stored.ID == id {
			stored.Revoked = true
			stored.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (s *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	s.revokedAll = append(s.revokedAll, userID)
	return nil
}

func (s *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.auditEntries = append(s.auditEntries, log)
	return nil
}

func newAuthServiceForTest(repo *authRepoStub) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "tempora",
	})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceRegisterIssuesSession(t *testing.T) {
	repo := newAuthRepoStub()
	svc := newAuthServiceForTest(repo)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "alex@example.com",
		Password: "correct-horse",
		FullName: "Alex Example",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleUser, resp.User.Role)

	created := repo.usersByEmail["alex@example.com"]
	require.NotNil(t, created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct-horse")))
	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionRegister, repo.auditEntries[0].Action)
}

func TestAuthServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "u1", Email: "alex@example.com", Active: true})
	svc := newAuthServiceForTest(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "alex@example.com",
		Password: "correct-horse",
		FullName: "Alex Example",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterRejectsShortPassword(t *testing.T) {
	svc := newAuthServiceForTest(newAuthRepoStub())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "alex@example.com",
		Password: "short",
		FullName: "Alex Example",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "alex@example.com",
		PasswordHash: hashPassword(t, "correct-horse"),
		FullName:     "Alex Example",
		Role:         models.RoleUser,
		Active:       true,
	})
	svc := newAuthServiceForTest(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "alex@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.NotNil(t, repo.usersByID["u1"].LastLogin)
}

func TestAuthServiceLoginRejectsWrongPassword(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "alex@example.com",
		PasswordHash: hashPassword(t, "correct-horse"),
		Active:       true,
	})
	svc := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "alex@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginRejectsInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "alex@example.com",
		PasswordHash: hashPassword(t, "correct-horse"),
		Active:       false,
	})
	svc := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "alex@example.com", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "u1", Email: "alex@example.com", Role: models.RoleUser, Active: true})
	repo.refreshTokens["old-token"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := newAuthServiceForTest(repo)

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
}

func TestAuthServiceRefreshRejectsExpiredToken(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "u1", Email: "alex@example.com", Active: true})
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	svc := newAuthServiceForTest(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutRevokesAllSessions(t *testing.T) {
	repo := newAuthRepoStub()
	svc := newAuthServiceForTest(repo)

	require.NoError(t, svc.Logout(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, repo.revokedAll)
}

func TestAuthServiceValidateRejectsTamperedToken(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "alex@example.com",
		PasswordHash: hashPassword(t, "correct-horse"),
		Active:       true,
	})
	svc := newAuthServiceForTest(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "alex@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "different-secret", AccessTokenExpiry: time.Minute})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
