package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	user := &User{Username: "admin"}
	require.NoError(t, user.SetPassword("s3cret"))

	// 散列不可逆，不存明文
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.True(t, user.CheckPassword("s3cret"))
	assert.False(t, user.CheckPassword("wrong"))
	assert.False(t, user.CheckPassword(""))
}

func TestUserIsActive(t *testing.T) {
	user := &User{Status: UserStatusActive}
	assert.True(t, user.IsActive())

	user.Status = UserStatusInactive
	assert.False(t, user.IsActive())
}
