package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers supported by the quantity store factory.
const (
	DriverTables   = "tables"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Tables    TablesConfig
	Redis     RedisConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Ledger    LedgerConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// StoreConfig selects the quantity store backend.
type StoreConfig struct {
	Driver string
	DSN    string
}

// TablesConfig contains credentials, table ids and column names of the hosted table database.
type TablesConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	HarvestTableID int
	StockTableID   int
	TripTableID    int
	Fields         FieldNames
}

// FieldNames maps human-readable column names onto the ledger model.
type FieldNames struct {
	HarvestLabel   string
	HarvestNominal string
	StockLabel     string
	StockNominal   string
	TripHarvest    string
	TripStock      string
	TripTruck      string
	TripLoaded     string
	TripStatus     string
}

// RedisConfig configures the optional origin cache.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// MongoDBConfig holds settings for the reconciliation archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to export reports to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// WhatsAppConfig contains credentials for over-allocation alerts.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	AlertTo       string
}

// LedgerConfig holds admission policy switches.
type LedgerConfig struct {
	RejectOverCapacity bool
}

// Enabled reports whether alerts can be delivered.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.AlertTo != ""
}

// Enabled reports whether a report spreadsheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	var parseErrs []error

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getenvWithDefault("STORE_DRIVER", DriverTables)),
			DSN:    os.Getenv("SQL_DSN"),
		},
		Tables: TablesConfig{
			BaseURL:        getenvWithDefault("TABLES_BASE_URL", "https://api.baserow.io"),
			Token:          os.Getenv("TABLES_TOKEN"),
			Timeout:        durationEnv("TABLES_TIMEOUT", 15*time.Second, &parseErrs),
			HarvestTableID: intEnv("TABLES_HARVEST_TABLE_ID", &parseErrs),
			StockTableID:   intEnv("TABLES_STOCK_TABLE_ID", &parseErrs),
			TripTableID:    intEnv("TABLES_TRIP_TABLE_ID", &parseErrs),
			Fields: FieldNames{
				HarvestLabel:   getenvWithDefault("FIELD_HARVEST_LABEL", "Name"),
				HarvestNominal: getenvWithDefault("FIELD_HARVEST_KG", "Harvested Kg"),
				StockLabel:     getenvWithDefault("FIELD_STOCK_LABEL", "Name"),
				StockNominal:   getenvWithDefault("FIELD_STOCK_KG", "Stored Kg"),
				TripHarvest:    getenvWithDefault("FIELD_TRIP_HARVEST", "Harvest"),
				TripStock:      getenvWithDefault("FIELD_TRIP_STOCK", "Stock"),
				TripTruck:      getenvWithDefault("FIELD_TRIP_TRUCK", "Truck"),
				TripLoaded:     getenvWithDefault("FIELD_TRIP_KG", "Loaded Kg"),
				TripStatus:     getenvWithDefault("FIELD_TRIP_STATUS", "Status"),
			},
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
			TTL: durationEnv("ORIGIN_CACHE_TTL", 10*time.Minute, &parseErrs),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "farmtrack"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			Range:           getenvWithDefault("RECONCILIATION_SHEET_RANGE", "Reconciliation!A:H"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertTo:       os.Getenv("WHATSAPP_ALERT_TO"),
		},
		Ledger: LedgerConfig{
			RejectOverCapacity: strings.EqualFold(os.Getenv("REJECT_OVER_CAPACITY"), "true"),
		},
	}

	if err := errors.Join(parseErrs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case DriverTables:
		if err := c.Tables.Validate(); err != nil {
			return err
		}
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("SQL_DSN must be provided for sql store drivers")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided with GOOGLE_SHEET_DATABASE_ID")
	}

	return nil
}

// Validate checks the hosted table database settings.
func (c TablesConfig) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("TABLES_BASE_URL must not be empty")
	case c.Token == "":
		return errors.New("TABLES_TOKEN must be provided")
	case c.HarvestTableID <= 0:
		return errors.New("TABLES_HARVEST_TABLE_ID must be provided")
	case c.StockTableID <= 0:
		return errors.New("TABLES_STOCK_TABLE_ID must be provided")
	case c.TripTableID <= 0:
		return errors.New("TABLES_TRIP_TABLE_ID must be provided")
	}

	f := c.Fields
	for _, name := range []string{f.HarvestNominal, f.StockNominal, f.TripHarvest, f.TripStock, f.TripLoaded, f.TripStatus} {
		if strings.TrimSpace(name) == "" {
			return errors.New("FIELD_* column names must not be empty")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be an integer: %w", key, err))
	}
	return n
}

func durationEnv(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a duration: %w", key, err))
		return fallback
	}
	return d
}
