package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Sync.GitTimeout)
	assert.Equal(t, "0 2 * * *", cfg.Sync.Cron)
}

func TestWriteTimeoutCoversGitOperations(t *testing.T) {
	// 登记/同步接口阻塞等待git操作，写超时必须比git超时长，
	// 否则clone在服务端完成而客户端拿不到响应
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.Sync.GitTimeout)
	assert.Equal(t, cfg.Sync.GitTimeout+30*time.Second, cfg.Server.WriteTimeout)
}

func TestWriteTimeoutFollowsGitTimeout(t *testing.T) {
	t.Setenv("GIT_TIMEOUT", "5m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Sync.GitTimeout)
	assert.Equal(t, 5*time.Minute+30*time.Second, cfg.Server.WriteTimeout)
}

func TestWriteTimeoutExplicitOverride(t *testing.T) {
	t.Setenv("SERVER_WRITE_TIMEOUT", "3m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, cfg.Server.WriteTimeout)
}
