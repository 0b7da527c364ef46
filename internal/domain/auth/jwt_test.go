package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/config"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

func testJWTService(secret string) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     secret,
		Expiration: time.Hour,
		Issuer:     "successfuel-test",
	})
}

func testUser() *User {
	u := NewUser("manager@station.test", "Awa", "Diop")
	u.Roles = []string{RoleManager}
	u.StationIDs = []id.ID{id.New()}
	return u
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testJWTService("test-secret")
	user := testUser()

	token, expiresAt, err := svc.GenerateAccessToken(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	actor, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID.String(), actor.ActorID)
	assert.Equal(t, "manager@station.test", actor.Email)
	assert.Equal(t, []string{RoleManager}, actor.Roles)
	assert.Equal(t, user.StationIDStrings(), actor.StationIDs)
	assert.False(t, actor.IsAdmin)
}

func TestTokenCarriesAdminFlag(t *testing.T) {
	svc := testJWTService("test-secret")
	user := testUser()
	user.IsAdmin = true

	token, _, err := svc.GenerateAccessToken(user)
	assert.NoError(t, err)

	actor, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.True(t, actor.IsAdmin)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := testJWTService("secret-a").GenerateAccessToken(testUser())
	assert.NoError(t, err)

	_, err = testJWTService("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := testJWTService("test-secret").ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:     "test-secret",
		Expiration: -time.Minute,
		Issuer:     "successfuel-test",
	})

	token, _, err := svc.GenerateAccessToken(testUser())
	assert.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
