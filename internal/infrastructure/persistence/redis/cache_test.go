package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "skill:l-1", SkillKey("l-1"))
	assert.Equal(t, "lock:swap_request:req-1", LockKey("swap_request:req-1"))
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())

	cfg.Host = "redis"
	cfg.Port = 6380
	assert.Equal(t, "redis:6380", cfg.Addr())
}
