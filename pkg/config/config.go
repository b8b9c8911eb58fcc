// Package config handles application configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/storage"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
)

const envPrefix = "PRICEWATCH"

// AppConfig holds the application configuration
type AppConfig struct {
	Telegram TelegramConfig
	Feed     FeedConfig
	Storage  StorageConfig
	Watch    WatchConfig
	Mail     MailConfig
	Log      LogConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	Token  string
	Users  []int64
	ChatID int64
	APIURL string
}

// FeedConfig holds the price source configuration
type FeedConfig struct {
	BaseURL  string
	Coin     string
	Currency string
	Symbol   string
	Timeout  time.Duration
}

// StorageConfig selects the position store
type StorageConfig struct {
	Backend storage.Backend
	Path    string
	Redis   storage.RedisConfig
}

// WatchConfig holds the recurring check configuration
type WatchConfig struct {
	Interval  time.Duration
	Threshold float64
	AutoStart bool // start watching CHAT_ID at boot
}

// MailConfig holds optional e-mail alert configuration
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	From     string
	To       string
	Password string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string
	Backend    string
	JSON       bool
	Color      bool
	TimeFormat string
}

// Settings returns the runtime settings shared by the components
func (c *AppConfig) Settings() core.Settings {
	return core.Settings{
		Asset: core.AssetSettings{Symbol: c.Feed.Symbol, Currency: c.Feed.Currency},
		Watch: core.WatchSettings{Interval: c.Watch.Interval, Threshold: c.Watch.Threshold},
		Telegram: core.TelegramSettings{
			Token:  c.Telegram.Token,
			Users:  c.Telegram.Users,
			ChatID: c.Telegram.ChatID,
			APIURL: c.Telegram.APIURL,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("feed.coin", "bitcoin")
	v.SetDefault("feed.currency", "usd")
	v.SetDefault("feed.symbol", "BTC")
	v.SetDefault("feed.timeout", "10s")
	v.SetDefault("storage.backend", string(storage.BackendFile))
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "pricewatch:")
	v.SetDefault("watch.interval", "1h")
	v.SetDefault("watch.threshold", 5.0)
	v.SetDefault("watch.autostart", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.users", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.api_url", "")
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.backend", "zerolog")
	v.SetDefault("log.json", false)
	v.SetDefault("log.color", true)
	v.SetDefault("log.time_format", "2006-01-02 15:04:05")
}

// Load reads .env, the optional config file at path and the environment.
// Environment variables win over the file: PRICEWATCH_WATCH_INTERVAL overrides watch.interval.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// names used by earlier releases of the bot
	_ = v.BindEnv("telegram.token", envPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", envPrefix+"_TELEGRAM_CHAT_ID", "CHAT_ID")
	_ = v.BindEnv("telegram.users", envPrefix+"_TELEGRAM_USERS", "TELEGRAM_USERS")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	interval, err := parseDuration(v.GetString("watch.interval"))
	if err != nil {
		return nil, fmt.Errorf("watch.interval: %w", err)
	}

	timeout, err := parseDuration(v.GetString("feed.timeout"))
	if err != nil {
		return nil, fmt.Errorf("feed.timeout: %w", err)
	}

	users, err := parseIDs(v.Get("telegram.users"))
	if err != nil {
		return nil, fmt.Errorf("telegram.users: %w", err)
	}

	cfg := &AppConfig{
		Telegram: TelegramConfig{
			Token:  v.GetString("telegram.token"),
			Users:  users,
			ChatID: v.GetInt64("telegram.chat_id"),
			APIURL: v.GetString("telegram.api_url"),
		},
		Feed: FeedConfig{
			BaseURL:  v.GetString("feed.base_url"),
			Coin:     v.GetString("feed.coin"),
			Currency: v.GetString("feed.currency"),
			Symbol:   v.GetString("feed.symbol"),
			Timeout:  timeout,
		},
		Storage: StorageConfig{
			Backend: storage.Backend(v.GetString("storage.backend")),
			Path:    v.GetString("storage.path"),
			Redis: storage.RedisConfig{
				Addr:     v.GetString("storage.redis.addr"),
				Password: v.GetString("storage.redis.password"),
				DB:       v.GetInt("storage.redis.db"),
				Prefix:   v.GetString("storage.redis.prefix"),
			},
		},
		Watch: WatchConfig{
			Interval:  interval,
			Threshold: v.GetFloat64("watch.threshold"),
			AutoStart: v.GetBool("watch.autostart"),
		},
		Mail: MailConfig{
			Enabled:  v.GetBool("mail.enabled"),
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			From:     v.GetString("mail.from"),
			To:       v.GetString("mail.to"),
			Password: v.GetString("mail.password"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Backend:    v.GetString("log.backend"),
			JSON:       v.GetBool("log.json"),
			Color:      v.GetBool("log.color"),
			TimeFormat: v.GetString("log.time_format"),
		},
	}

	return cfg, nil
}

// Validate checks the settings needed to run the bot
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram token is required (TELEGRAM_BOT_TOKEN)"))
	}
	if c.Watch.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("watch threshold must be positive, got %v", c.Watch.Threshold))
	}
	if c.Watch.Interval < time.Second {
		errs = append(errs, fmt.Errorf("watch interval must be at least 1s, got %s", c.Watch.Interval))
	}
	if c.Watch.AutoStart && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("watch autostart requires a chat id (CHAT_ID)"))
	}
	if !lo.Contains(storage.Backends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Mail.Enabled && (c.Mail.Host == "" || c.Mail.To == "") {
		errs = append(errs, errors.New("mail alerts require mail.host and mail.to"))
	}
	if c.Feed.Coin == "" || c.Feed.Currency == "" {
		errs = append(errs, errors.New("feed coin and currency are required"))
	}

	return errors.Join(errs...)
}

// parseDuration accepts Go durations plus days and weeks ("1d", "2w")
func parseDuration(s string) (time.Duration, error) {
	return str2duration.ParseDuration(strings.TrimSpace(s))
}

// parseIDs accepts a list from a config file or a comma separated env value
func parseIDs(raw any) ([]int64, error) {
	var items []string
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case string:
		items = strings.Split(value, ",")
	case []any:
		items = lo.Map(value, func(item any, _ int) string { return fmt.Sprint(item) })
	case []string:
		items = value
	default:
		items = []string{fmt.Sprint(value)}
	}

	var ids []int64
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
