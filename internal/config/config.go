package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	// Ledger time zones must resolve on hosts without zoneinfo.
	_ "time/tzdata"

	"fintrack/internal/aggregate"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// Ledger
	LedgerTimezone string
	WeekScheme     string
	RecentLimit    int

	// Snapshot cache
	SnapshotCacheSize int
	SnapshotCacheTTL  time.Duration

	// AMQP; an empty URL disables events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	RefreshInterval time.Duration

	// Google Sheets mirror; an empty spreadsheet id disables it
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleSummarySheetName   string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		LedgerTimezone: getEnv("LEDGER_TIMEZONE", "UTC"),
		WeekScheme:     getEnv("WEEK_SCHEME", string(aggregate.WeekMonday)),
		RecentLimit:    getEnvInt("RECENT_LIMIT", 5),

		SnapshotCacheSize: getEnvInt("SNAPSHOT_CACHE_SIZE", 256),
		SnapshotCacheTTL:  getEnvDuration("SNAPSHOT_CACHE_TTL", 5*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transactions"),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleSummarySheetName:   getEnv("GOOGLE_SUMMARY_SHEET_NAME", "Accounts"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Location resolves LedgerTimezone.
func (c *Config) Location() (*time.Location, error) {
	if c.LedgerTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.LedgerTimezone)
}

func (c *Config) Weeks() (aggregate.WeekScheme, error) {
	return aggregate.ParseWeekScheme(c.WeekScheme)
}

func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == BackendSQLite && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid ledger timezone '%s': %v", c.LedgerTimezone, err))
	}
	if _, err := c.Weeks(); err != nil {
		errors = append(errors, err.Error())
	}
	if c.RecentLimit < 1 || c.RecentLimit > 1000 {
		errors = append(errors, fmt.Sprintf("invalid recent limit %d: must be between 1 and 1000", c.RecentLimit))
	}

	if c.SnapshotCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid snapshot cache size %d: must be at least 1", c.SnapshotCacheSize))
	}
	if c.SnapshotCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid snapshot cache TTL %v: must not be negative", c.SnapshotCacheTTL))
	}

	if c.AMQPEnabled() {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" || c.GoogleSummarySheetName == "" {
			errors = append(errors, "Google sheet names cannot be empty when a spreadsheet id is set")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the Sheets mirror")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
