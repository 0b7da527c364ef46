package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

type mockUserRepo struct {
	byEmail map[string]*User
	updates int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: make(map[string]*User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	for _, u := range m.byEmail {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", userID.String())
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	return u, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *User) error {
	m.updates++
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := m.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (m *mockUserRepo) List(ctx context.Context, filter UserFilter) ([]User, int, error) {
	out := make([]User, 0, len(m.byEmail))
	for _, u := range m.byEmail {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func newAuthFixture(t *testing.T) (*Service, *mockUserRepo, *User) {
	t.Helper()

	repo := newMockUserRepo()
	svc := NewService(repo, testJWTService("test-secret"))

	user := testUser()
	assert.NoError(t, user.SetPassword("correct-horse"))
	repo.byEmail[user.Email] = user

	return svc, repo, user
}

func TestLogin_Success(t *testing.T) {
	svc, _, user := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "Manager@Station.Test", "correct-horse")
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotNil(t, result.User.LastLoginAt)
	assert.Equal(t, 0, result.User.FailedLoginAttempts)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, user := newAuthFixture(t)

	_, err := svc.Login(context.Background(), user.Email, "wrong")
	appErr, ok := apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	assert.Equal(t, 1, user.FailedLoginAttempts)
}

func TestLogin_UnknownEmailLooksLikeBadPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "nobody@station.test", "whatever")
	appErr, ok := apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	assert.Equal(t, "invalid credentials", appErr.Message)
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, _, user := newAuthFixture(t)
	user.IsActive = false

	_, err := svc.Login(context.Background(), user.Email, "correct-horse")
	appErr, ok := apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "account is disabled", appErr.Message)
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	svc, _, user := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < maxFailedLogins; i++ {
		_, err := svc.Login(ctx, user.Email, "wrong")
		assert.Error(t, err)
	}

	assert.True(t, user.IsLocked())

	// Even the right password is refused while the lock holds.
	_, err := svc.Login(ctx, user.Email, "correct-horse")
	appErr, ok := apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "account is temporarily locked", appErr.Message)
}

func TestLogin_SuccessClearsFailureCounter(t *testing.T) {
	svc, _, user := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < maxFailedLogins-1; i++ {
		_, _ = svc.Login(ctx, user.Email, "wrong")
	}
	assert.Equal(t, maxFailedLogins-1, user.FailedLoginAttempts)

	_, err := svc.Login(ctx, user.Email, "correct-horse")
	assert.NoError(t, err)
	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.Nil(t, user.LockedUntil)
}

func TestRegister(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo, testJWTService("test-secret"))

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Pompiste@Station.Test",
		Password:  "long-enough-pass",
		FirstName: "Moussa",
		LastName:  "Ba",
		Roles:     []string{RolePompiste},
	})
	assert.NoError(t, err)
	assert.Equal(t, "pompiste@station.test", user.Email)
	assert.True(t, user.IsActive)
	assert.True(t, user.CheckPassword("long-enough-pass"))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, user := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    user.Email,
		Password: "long-enough-pass",
	})
	appErr, ok := apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestRegister_ShortPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo, testJWTService("test-secret"))

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "x@station.test",
		Password: "short",
	})
	appErr, ok := apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestChangePassword(t *testing.T) {
	svc, _, user := newAuthFixture(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID, "wrong", "next-password")
	assert.Error(t, err)

	err = svc.ChangePassword(ctx, user.ID, "correct-horse", "next-password")
	assert.NoError(t, err)
	assert.True(t, user.CheckPassword("next-password"))
}
