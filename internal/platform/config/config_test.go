package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.AdminCodeTTL)
	assert.False(t, cfg.ForceLocalLogout)
	assert.Equal(t, "STD001", cfg.ParentDemo.Principal)
	assert.Equal(t, "parent123", cfg.ParentDemo.Password)
	assert.Equal(t, "TCH001", cfg.TeacherDemo.Principal)
	assert.Equal(t, "log", cfg.Mail.Sender)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CAMPUSGATE_ADDR", ":9090")
	t.Setenv("ADMIN_CODE_TTL", "10m")
	t.Setenv("FORCE_LOCAL_LOGOUT", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 10*time.Minute, cfg.AdminCodeTTL)
	assert.True(t, cfg.ForceLocalLogout)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnvBadDurationFallsBack(t *testing.T) {
	t.Setenv("ADMIN_CODE_TTL", "not-a-duration")

	cfg := FromEnv()

	assert.Equal(t, 30*time.Minute, cfg.AdminCodeTTL)
}
