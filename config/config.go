package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the bot
type Config struct {
	Telegram TelegramConfig
	Download DownloadConfig
	Cleanup  CleanupConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string
	// ServerURL points to a self-hosted Bot API server; empty means api.telegram.org
	ServerURL string
}

// DownloadConfig holds media acquisition configuration
type DownloadConfig struct {
	Dir            string
	MaxFileSizeMB  int64
	Timeout        time.Duration
	MaxConcurrent  int
	MaxDuration    time.Duration
	YtDlpPath      string
	TikTokCookies  string
	ResolveTimeout time.Duration
	ScrapeTimeout  time.Duration
	ProbeTimeout   time.Duration
	ProbeRetries   int
	DesktopUA      string
	MobileUA       string
}

// MaxFileSize returns the hard byte ceiling for a single artifact
func (c *DownloadConfig) MaxFileSize() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// CleanupConfig holds retention sweeper configuration
type CleanupConfig struct {
	Interval   time.Duration
	MaxFileAge time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Telegram *TelegramConfig
	Download *DownloadConfig
	Cleanup  *CleanupConfig
	Logging  *LoggingConfig
	Service  *ServiceConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Telegram: &cfg.Telegram,
		Download: &cfg.Download,
		Cleanup:  &cfg.Cleanup,
		Logging:  &cfg.Logging,
		Service:  &cfg.Service,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	token := getEnv("TELEGRAM_BOT_TOKEN", "")
	if token == "" {
		token = getEnv("BOT_TOKEN", "")
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken:  token,
			ServerURL: getEnv("TELEGRAM_API_URL", ""),
		},
		Download: DownloadConfig{
			Dir:            getEnv("DOWNLOADS_DIR", "downloads"),
			MaxFileSizeMB:  int64(getEnvInt("MAX_FILE_SIZE_MB", 500)),
			Timeout:        time.Duration(getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 600)) * time.Second,
			MaxConcurrent:  getEnvInt("MAX_CONCURRENT_DOWNLOADS", 10),
			MaxDuration:    time.Duration(getEnvInt("MAX_DURATION_SECONDS", 3600)) * time.Second,
			YtDlpPath:      getEnv("YTDLP_PATH", "yt-dlp"),
			TikTokCookies:  getEnv("TIKTOK_COOKIES_FILE", ""),
			ResolveTimeout: 10 * time.Second,
			ScrapeTimeout:  30 * time.Second,
			ProbeTimeout:   30 * time.Second,
			ProbeRetries:   3,
			DesktopUA:      getEnv("DESKTOP_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),
			MobileUA:       getEnv("MOBILE_USER_AGENT", "Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X) AppleWebKit/605.1.15"),
		},
		Cleanup: CleanupConfig{
			Interval:   hoursToDuration(getEnvFloat("CLEANUP_INTERVAL_HOURS", 1)),
			MaxFileAge: hoursToDuration(getEnvFloat("MAX_FILE_AGE_HOURS", 24)),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "mediaflow-bot"),
			Port: getEnv("SERVICE_PORT", "8081"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Download.Dir == "" {
		return fmt.Errorf("DOWNLOADS_DIR is required")
	}

	if c.Download.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive")
	}

	if c.Download.MaxConcurrent <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_DOWNLOADS must be positive")
	}

	if c.Download.Timeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT_SECONDS must be positive")
	}

	if c.Cleanup.Interval <= 0 || c.Cleanup.MaxFileAge <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL_HOURS and MAX_FILE_AGE_HOURS must be positive")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
