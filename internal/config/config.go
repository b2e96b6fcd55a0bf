// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment. main loads a
// .env file first through godotenv's autoload package.
type Config struct {
	Port     string
	LogLevel string
	LogJSON  bool

	// Table rules applied to every new room.
	TurnTimeout            time.Duration
	RoundBreak             time.Duration
	JokerCount             int
	MaxPlayers             int
	MinPlayers             int
	EliminationScore       int
	FirstDropPenalty       int
	MiddleDropPenalty      int
	WrongShowPenalty       int
	DeclareLossPenalty     int
	MaxConsecutiveTimeouts int
	FirstDropScope         string
	WildExcludesCutSuit    bool

	// Inbound message rate limit per connection.
	RateLimitPerSec float64
	RateLimitBurst  int

	// Optional action log. Empty RedisAddr disables publishing.
	RedisAddr          string
	RedisDB            int
	HistorianQueueName string

	// Historian settings.
	DatabaseURL         string
	HistorianBatchSize  int
	HistorianFlushDelay time.Duration
	// GameInactivity marks a game abandoned once no action arrives for it.
	GameInactivity time.Duration
}

// Load reads the configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),

		TurnTimeout:            time.Duration(getEnvInt("TURN_TIMEOUT_SEC", 45)) * time.Second,
		RoundBreak:             time.Duration(getEnvInt("ROUND_BREAK_MS", 3000)) * time.Millisecond,
		JokerCount:             getEnvInt("JOKER_COUNT", 2),
		MaxPlayers:             getEnvInt("MAX_PLAYERS", 6),
		MinPlayers:             getEnvInt("MIN_PLAYERS", 2),
		EliminationScore:       getEnvInt("ELIMINATION_SCORE", 250),
		FirstDropPenalty:       getEnvInt("FIRST_DROP_PENALTY", 25),
		MiddleDropPenalty:      getEnvInt("MIDDLE_DROP_PENALTY", 50),
		WrongShowPenalty:       getEnvInt("WRONG_SHOW_PENALTY", 80),
		DeclareLossPenalty:     getEnvInt("DECLARE_LOSS_PENALTY", 80),
		MaxConsecutiveTimeouts: getEnvInt("MAX_CONSECUTIVE_TIMEOUTS", 2),
		FirstDropScope:         strings.ToLower(getEnv("FIRST_DROP_SCOPE", "player")),
		WildExcludesCutSuit:    getEnvBool("WILD_EXCLUDES_CUT_SUIT", false),

		RateLimitPerSec: getEnvFloat("RATE_LIMIT_PER_SEC", 5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		HistorianQueueName: getEnv("HISTORIAN_QUEUE_NAME", "rummy_actions"),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		HistorianBatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		GameInactivity:      time.Duration(getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}
}

// NewLogger builds the process logger from the configured level and format.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Warnf("unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
