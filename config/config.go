package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all server configuration
type Config struct {
	Port            int
	TwilioPort      int    // Port for Twilio server (used when ServerType is "both")
	ServerType      string // "websocket", "twilio", or "both"
	RedisURL        string
	RedisPassword   string
	MaxSessions     int
	SessionTimeout  time.Duration
	GeminiAPIKey    string // empty is allowed; sessions fail to start without it
	AllowedOrigins  []string
	KeepAlivePeriod time.Duration

	LiveModel         string
	LiveVoice         string
	VideoModel        string
	ItineraryModel    string
	VideoPollInterval time.Duration
	RenderPeriod      time.Duration
	LogLevel          zapcore.Level
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		Port:              8080,
		TwilioPort:        8081,
		ServerType:        "websocket",
		RedisURL:          "localhost:6379",
		RedisPassword:     "",
		MaxSessions:       100,
		SessionTimeout:    30 * time.Minute,
		AllowedOrigins:    []string{"*"},
		KeepAlivePeriod:   30 * time.Second,
		VideoPollInterval: 10 * time.Second,
		RenderPeriod:      20 * time.Millisecond,
		LogLevel:          zapcore.InfoLevel,
	}

	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if config.GeminiAPIKey == "" {
		config.GeminiAPIKey = os.Getenv("API_KEY")
	}

	var err error
	if config.Port, err = intEnv("PORT", config.Port); err != nil {
		return nil, err
	}
	if config.TwilioPort, err = intEnv("TWILIO_PORT", config.TwilioPort); err != nil {
		return nil, err
	}
	if config.Port <= 0 || config.TwilioPort <= 0 {
		return nil, fmt.Errorf("invalid PORT/TWILIO_PORT: must be positive")
	}

	// Optional: REDIS_URL
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.RedisURL = redisURL
	}

	// Optional: REDIS_PASSWORD
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	if config.MaxSessions, err = intEnv("MAX_SESSIONS", config.MaxSessions); err != nil {
		return nil, err
	}
	if config.MaxSessions <= 0 {
		return nil, fmt.Errorf("invalid MAX_SESSIONS: must be positive")
	}

	// Optional: SESSION_TIMEOUT (in minutes)
	if config.SessionTimeout, err = durationEnv("SESSION_TIMEOUT", time.Minute, config.SessionTimeout); err != nil {
		return nil, err
	}

	// Optional: ALLOWED_ORIGINS (comma-separated)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = config.AllowedOrigins[:0]
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, o)
			}
		}
	}

	// Optional: KEEPALIVE_PERIOD (in seconds)
	if config.KeepAlivePeriod, err = durationEnv("KEEPALIVE_PERIOD", time.Second, config.KeepAlivePeriod); err != nil {
		return nil, err
	}

	// Optional: SERVER_TYPE ("websocket", "twilio", or "both")
	if serverType := os.Getenv("SERVER_TYPE"); serverType != "" {
		switch serverType {
		case "websocket", "twilio", "both":
			config.ServerType = serverType
		default:
			return nil, fmt.Errorf("invalid SERVER_TYPE: must be 'websocket', 'twilio', or 'both'")
		}
	}

	config.LiveModel = os.Getenv("LIVE_MODEL")
	config.LiveVoice = os.Getenv("LIVE_VOICE")
	config.VideoModel = os.Getenv("VIDEO_MODEL")
	config.ItineraryModel = os.Getenv("ITINERARY_MODEL")

	// Optional: VIDEO_POLL_INTERVAL (in seconds)
	if config.VideoPollInterval, err = durationEnv("VIDEO_POLL_INTERVAL", time.Second, config.VideoPollInterval); err != nil {
		return nil, err
	}

	// Optional: RENDER_PERIOD_MS
	if config.RenderPeriod, err = durationEnv("RENDER_PERIOD_MS", time.Millisecond, config.RenderPeriod); err != nil {
		return nil, err
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := config.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	return config, nil
}

// NewLogger builds the service logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	return zc.Build()
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, unit, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return time.Duration(n) * unit, nil
}
