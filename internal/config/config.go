package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"folio/internal/logger"

	"gopkg.in/yaml.v3"
)

const defaultTerms = `Cancellation prior to 30 days of arrival will not attract any retention charge.
Cancellation made within 15 days of arrival attract 2 days of retention charges.
Cancellations made within 1 day or during the stay will attract 100% retention for the period of the booking.`

const defaultNotes = `For Inward Remittances:
Heritage Park Hotel Limited,
PO Box 1598; Mendana Avenue, Honiara, SI
Account #: 00-0000-2863
Account with: The Bank of South Pacific Limited,
Point Cruz, Honiara, Solomon Islands. (Tel: 21874; Fax: 28510)
ABA Routing #: 02600 5092.
SWIFT: BOSPSBSB
A/c with: Wachovia- NY, 2000-19100-539.`

// Config is the full runtime configuration.
type Config struct {
	Port      int    `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	AssetsDir string `yaml:"assets_dir"`

	Numbering NumberingConfig `yaml:"numbering"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Company   CompanyConfig   `yaml:"company"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Log       LogConfig       `yaml:"log"`
}

// NumberingConfig holds the identifier prefix for each document type.
type NumberingConfig struct {
	QuotationPrefix string `yaml:"quotation_prefix"`
	ProformaPrefix  string `yaml:"proforma_prefix"`
	InvoicePrefix   string `yaml:"invoice_prefix"`
}

// SMTPConfig holds outbound mail settings. An empty Host means mail is disabled.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Enabled reports whether enough is configured to attempt delivery.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// CompanyConfig is the sender block printed on documents.
type CompanyConfig struct {
	Name    string   `yaml:"name"`
	Address []string `yaml:"address"`
	Phone   string   `yaml:"phone"`
	Email   string   `yaml:"email"`
}

// DefaultsConfig holds text applied to new documents when the caller omits it.
type DefaultsConfig struct {
	Terms string `yaml:"terms"`
	Notes string `yaml:"notes"`
}

// LogConfig mirrors logger.LogConfig for file-based configuration.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	TimeFormat string `yaml:"time_format"`
	Output     string `yaml:"output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:      9000,
		DBPath:    "folio.db",
		AssetsDir: "assets",
		Numbering: NumberingConfig{
			QuotationPrefix: "QUO",
			ProformaPrefix:  "PI",
			InvoicePrefix:   "INV",
		},
		SMTP: SMTPConfig{Port: 587},
		Company: CompanyConfig{
			Name:    "Heritage Park Hotel",
			Address: []string{"P.O Box 1598", "Mendana Avenue", "Honiara, Solomon Islands"},
			Phone:   "+677 45500",
			Email:   "reservations@heritageparkhotel.com.sb",
		},
		Defaults: DefaultsConfig{Terms: defaultTerms, Notes: defaultNotes},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			TimeFormat: "2006-01-02T15:04:05Z07:00",
			Output:     "stdout",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and the
// environment, in that order of precedence (environment wins).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FOLIO_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.AssetsDir = getEnv("ASSETS_DIR", c.AssetsDir)

	c.Numbering.QuotationPrefix = getEnv("QUOTATION_PREFIX", c.Numbering.QuotationPrefix)
	c.Numbering.ProformaPrefix = getEnv("PROFORMA_PREFIX", c.Numbering.ProformaPrefix)
	c.Numbering.InvoicePrefix = getEnv("INVOICE_PREFIX", c.Numbering.InvoicePrefix)

	c.SMTP.Host = getEnv("SMTP_HOST", c.SMTP.Host)
	c.SMTP.User = getEnv("SMTP_USER", c.SMTP.User)
	c.SMTP.Password = getEnv("SMTP_PASSWORD", c.SMTP.Password)
	c.SMTP.From = getEnv("SMTP_FROM", c.SMTP.From)

	c.Company.Name = getEnv("COMPANY_NAME", c.Company.Name)
	c.Company.Phone = getEnv("COMPANY_PHONE", c.Company.Phone)
	c.Company.Email = getEnv("COMPANY_EMAIL", c.Company.Email)
	if addr := os.Getenv("COMPANY_ADDRESS"); addr != "" {
		c.Company.Address = strings.Split(addr, ";")
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.TimeFormat = getEnv("LOG_TIME_FORMAT", c.Log.TimeFormat)
	c.Log.Output = getEnv("LOG_OUTPUT", c.Log.Output)

	var err error
	if c.Port, err = getEnvInt("PORT", c.Port); err != nil {
		return err
	}
	if c.SMTP.Port, err = getEnvInt("SMTP_PORT", c.SMTP.Port); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH is required")
	}
	prefixes := map[string]string{
		"QUOTATION_PREFIX": c.Numbering.QuotationPrefix,
		"PROFORMA_PREFIX":  c.Numbering.ProformaPrefix,
		"INVOICE_PREFIX":   c.Numbering.InvoicePrefix,
	}
	seen := make(map[string]string)
	for key, p := range prefixes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
		if strings.Contains(p, "-") {
			return fmt.Errorf("%s must not contain '-'", key)
		}
		if other, ok := seen[p]; ok {
			return fmt.Errorf("%s and %s share prefix %q", key, other, p)
		}
		seen[p] = key
	}
	if c.SMTP.Enabled() && (c.SMTP.Port <= 0 || c.SMTP.Port > 65535) {
		return fmt.Errorf("invalid SMTP port %d", c.SMTP.Port)
	}
	return nil
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		TimeFormat: c.Log.TimeFormat,
		Output:     c.Log.Output,
	}
}

// SenderAddress is the From address used when a request does not supply one.
func (c *Config) SenderAddress() string {
	if c.SMTP.From != "" {
		return c.SMTP.From
	}
	return c.Company.Email
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
