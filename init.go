package pricewatch

import (
	"os"
	"strconv"

	"github.com/raykavin/pricewatch/pkg/logger"
	"github.com/raykavin/pricewatch/pkg/logger/logrus"
	"github.com/raykavin/pricewatch/pkg/logger/zerolog"
)

const (
	// Default configuration values
	defaultLogLevel      = "info"
	defaultLogBackend    = "zerolog"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "PRICEWATCH_LOG_LEVEL"
	envLogBackend    = "PRICEWATCH_LOG_BACKEND"
	envLogTimeFormat = "PRICEWATCH_LOG_TIME_FORMAT"
	envLogColor      = "PRICEWATCH_LOG_COLOR"
	envLogJSON       = "PRICEWATCH_LOG_JSON"
)

// LogOptions selects and configures the logging backend
type LogOptions struct {
	Level      string
	Backend    string // zerolog or logrus
	TimeFormat string
	Colored    bool
	JSON       bool
}

func init() {
	// Initialize the logger with configuration from environment variables
	opts, err := logOptionsFromEnv()
	if err != nil {
		panic(err)
	}

	log, err := NewLogger(opts)
	if err != nil {
		panic(err)
	}

	DefaultLog = log
}

// NewLogger builds a logger for the selected backend
func NewLogger(opts LogOptions) (logger.Logger, error) {
	if opts.Backend == "logrus" {
		log, err := logrus.New(opts.Level, opts.JSON, nil)
		if err != nil {
			return nil, err
		}
		return log, nil
	}

	log, err := zerolog.New(zerolog.Options{
		Level:          opts.Level,
		DateTimeLayout: opts.TimeFormat,
		Colored:        opts.Colored,
		JSON:           opts.JSON,
	})
	if err != nil {
		return nil, err
	}

	return zerolog.NewAdapter(log), nil
}

// logOptionsFromEnv reads logging options with defaults
func logOptionsFromEnv() (LogOptions, error) {
	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return LogOptions{}, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return LogOptions{}, err
	}

	return LogOptions{
		Level:      getEnvWithDefault(envLogLevel, defaultLogLevel),
		Backend:    getEnvWithDefault(envLogBackend, defaultLogBackend),
		TimeFormat: getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat),
		Colored:    logColored,
		JSON:       logJSON,
	}, nil
}

// getEnvWithDefault returns the value of the environment variable or the default if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseBoolEnv gets a boolean environment variable with a default value
func parseBoolEnv(key, defaultValue string) (bool, error) {
	value := getEnvWithDefault(key, defaultValue)
	return strconv.ParseBool(value)
}
