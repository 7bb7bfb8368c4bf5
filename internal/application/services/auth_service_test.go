package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/config"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*entities.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*entities.User{}}
}

func (m *memoryUsers) Create(ctx context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUsers) GetByID(ctx context.Context, id string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, entities.ErrUserNotFound
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (m *memoryUsers) Update(ctx context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return entities.ErrUserNotFound
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUsers) List(ctx context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*entities.User{}
	for _, u := range m.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func newAuthService(users ports.UserRepository) *AuthService {
	return NewAuthService(users, config.JWTConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Issuer:    "gravekeeper-test",
	}, logger.NewNop())
}

func TestAuthService_CreateUserAndLogin(t *testing.T) {
	users := newMemoryUsers()
	svc := newAuthService(users)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, ports.CreateUserRequest{
		Email:    "Staff@Example.com",
		Name:     "Groundskeeper",
		Password: "correct-horse",
		Role:     entities.UserRoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	_, err = svc.CreateUser(ctx, ports.CreateUserRequest{
		Email: "staff@example.com", Name: "Dup", Password: "another-pass", Role: entities.UserRoleStaff,
	})
	assert.ErrorIs(t, err, entities.ErrUserExists)

	resp, err := svc.Login(ctx, ports.LoginRequest{Email: "staff@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, entities.UserRoleStaff, claims.Role)

	_, err = svc.Login(ctx, ports.LoginRequest{Email: "staff@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	_, err = svc.Login(ctx, ports.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestAuthService_InactiveUserCannotLogin(t *testing.T) {
	users := newMemoryUsers()
	svc := newAuthService(users)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, ports.CreateUserRequest{
		Email: "old@example.com", Name: "Retired", Password: "long-enough", Role: entities.UserRoleStaff,
	})
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, users.Update(ctx, user))

	_, err = svc.Login(ctx, ports.LoginRequest{Email: "old@example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, entities.ErrUserInactive)
}

func TestAuthService_ValidateToken(t *testing.T) {
	users := newMemoryUsers()
	svc := newAuthService(users)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, ports.CreateUserRequest{
		Email: "admin@example.com", Name: "Admin", Password: "long-enough", Role: entities.UserRoleAdmin,
	})
	require.NoError(t, err)
	resp, err := svc.Login(ctx, ports.LoginRequest{Email: "admin@example.com", Password: "long-enough"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService(users, config.JWTConfig{Secret: "other", ExpiresIn: time.Hour, Issuer: "gravekeeper-test"}, logger.NewNop())
		_, err := other.ValidateToken(resp.AccessToken)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		svc.clock = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.clock = time.Now }()

		_, err := svc.ValidateToken(resp.AccessToken)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
