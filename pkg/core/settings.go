package core

import "time"

// Settings represents the main configuration for the application
type Settings struct {
	Asset    AssetSettings    // Watched asset
	Watch    WatchSettings    // Recurring price check
	Telegram TelegramSettings // Telegram bot settings
}

// AssetSettings identifies the quoted asset
type AssetSettings struct {
	Symbol   string // Display symbol, e.g. BTC
	Currency string // Quote currency, e.g. usd
}

// WatchSettings holds the recurring check configuration
type WatchSettings struct {
	Interval  time.Duration // Time between two checks
	Threshold float64       // Absolute percentage that triggers an alert
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Token  string  // Telegram bot token
	Users  []int64 // Authorized user IDs, empty allows everyone
	ChatID int64   // Default chat for watch alerts, 0 when unset
	APIURL string  // Bot API server, empty for api.telegram.org
}
