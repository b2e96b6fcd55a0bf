package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 250, cfg.EliminationScore)
	assert.Equal(t, 25, cfg.FirstDropPenalty)
	assert.Equal(t, 50, cfg.MiddleDropPenalty)
	assert.Equal(t, 80, cfg.WrongShowPenalty)
	assert.Equal(t, 2, cfg.MaxConsecutiveTimeouts)
	assert.Equal(t, "player", cfg.FirstDropScope)
	assert.False(t, cfg.WildExcludesCutSuit)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.GameInactivity)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TURN_TIMEOUT_SEC", "10")
	t.Setenv("JOKER_COUNT", "3")
	t.Setenv("FIRST_DROP_SCOPE", "ROUND")
	t.Setenv("WILD_EXCLUDES_CUT_SUIT", "true")
	t.Setenv("MAX_PLAYERS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 3, cfg.JokerCount)
	assert.Equal(t, "round", cfg.FirstDropScope)
	assert.True(t, cfg.WildExcludesCutSuit)
	assert.Equal(t, 6, cfg.MaxPlayers)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	cfg := Config{LogLevel: "loud"}
	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger().GetLevel())

	cfg.LogLevel = "debug"
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())
}
