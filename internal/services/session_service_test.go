package services

import (
	"testing"
	"time"

	"gitcloner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	user := &models.User{Username: "admin", Status: models.UserStatusActive}
	user.ID = 3
	return user
}

func TestSessionCreateValidate(t *testing.T) {
	svc := NewSessionService(time.Hour)

	session := svc.Create(testUser())
	require.NotEmpty(t, session.Token)
	assert.Equal(t, uint(3), session.UserID)
	assert.Equal(t, "admin", session.Username)
	assert.True(t, session.ExpiresAt.After(session.IssuedAt))

	got, ok := svc.Validate(session.Token)
	require.True(t, ok)
	assert.Equal(t, session.Token, got.Token)

	// 每次签发的令牌都不同
	other := svc.Create(testUser())
	assert.NotEqual(t, session.Token, other.Token)
	assert.Equal(t, 2, svc.Count())
}

func TestSessionUnknownToken(t *testing.T) {
	svc := NewSessionService(time.Hour)

	_, ok := svc.Validate("不存在的令牌")
	assert.False(t, ok)
}

func TestSessionExpiry(t *testing.T) {
	// 负时长使会话签发即过期
	svc := NewSessionService(-time.Minute)

	session := svc.Create(testUser())
	require.Equal(t, 1, svc.Count())

	_, ok := svc.Validate(session.Token)
	assert.False(t, ok)
	// 过期会话在校验时顺带清除
	assert.Equal(t, 0, svc.Count())
}

func TestSessionRemove(t *testing.T) {
	svc := NewSessionService(time.Hour)

	session := svc.Create(testUser())
	svc.Remove(session.Token)

	_, ok := svc.Validate(session.Token)
	assert.False(t, ok)

	// 删除不存在的令牌无副作用
	svc.Remove(session.Token)
}

func TestSessionSweep(t *testing.T) {
	svc := NewSessionService(time.Hour)

	expired := svc.Create(testUser())
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	live := svc.Create(testUser())

	removed := svc.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, svc.Count())

	_, ok := svc.Validate(live.Token)
	assert.True(t, ok)

	// 再次清扫无可清除项
	assert.Equal(t, 0, svc.Sweep())
}
