package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FACTURAS"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	Parser    ParserConfig
	OCR       OCRConfig
	CORS      CORSConfig
	Queue     QueueConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Reminder  ReminderConfig
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// ReminderConfig controls due-date reminder emails.
type ReminderConfig struct {
	DaysAhead int    `mapstructure:"days_ahead"`
	Locale    string `mapstructure:"locale"`
}

// QueueConfig holds process queue worker settings.
type QueueConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	PollIntervalSecs int  `mapstructure:"poll_interval_secs"`
	Concurrency      int  `mapstructure:"concurrency"`
	BatchSize        int  `mapstructure:"batch_size"`
	JobTimeoutSecs   int  `mapstructure:"job_timeout_secs"`
}

// RateLimitConfig throttles the extraction endpoints per user.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OCRConfig holds text extraction settings.
type OCRConfig struct {
	TesseractPath string `mapstructure:"tesseract_path"`
	PdftoppmPath  string `mapstructure:"pdftoppm_path"`
	DPI           int    `mapstructure:"dpi"`
	Language      string `mapstructure:"language"`
	TessdataDir   string `mapstructure:"tessdata_dir"`
	MaxPDFPages   int    `mapstructure:"max_pdf_pages"`
	TimeoutSecs   int    `mapstructure:"timeout_secs"`
}

// ParserProviderConfig holds settings for a single LLM provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds LLM extraction settings with multi-provider support.
type ParserConfig struct {
	// Legacy flat fields
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
	Tertiary  ParserProviderConfig `mapstructure:"tertiary"`

	// Classify asks the model for an expense category when the
	// extracted invoice has none.
	Classify bool `mapstructure:"classify"`
}

// PrimaryConfig returns the primary provider config, falling back to legacy flat fields.
func (p *ParserConfig) PrimaryConfig() *ParserProviderConfig {
	if p.Primary.Provider != "" {
		return &p.Primary
	}
	return &ParserProviderConfig{
		Provider:     p.Provider,
		APIKey:       p.APIKey,
		DefaultModel: p.DefaultModel,
		MaxRetries:   p.MaxRetries,
		TimeoutSecs:  p.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (p *ParserConfig) TertiaryConfig() *ParserProviderConfig {
	if p.Tertiary.Provider != "" {
		return &p.Tertiary
	}
	return nil
}

// Providers returns the configured providers in fallback order.
func (p *ParserConfig) Providers() []*ParserProviderConfig {
	out := []*ParserProviderConfig{p.PrimaryConfig()}
	if s := p.SecondaryConfig(); s != nil {
		out = append(out, s)
	}
	if t := p.TertiaryConfig(); t != nil {
		out = append(out, t)
	}
	return out
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`

	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// S3Config holds object storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"server.port":             ":8080",
	"server.read_timeout":     "15s",
	"server.write_timeout":    "60s",
	"server.shutdown_timeout": "30s",
	"server.environment":      "development",

	"db.host":         "localhost",
	"db.port":         5432,
	"db.user":         "facturas",
	"db.password":     "facturas_secret",
	"db.name":         "facturas_db",
	"db.sslmode":      "disable",
	"db.max_open":     25,
	"db.max_idle":     10,
	"db.max_lifetime": "30m",

	"jwt.secret":         "change-me-in-production",
	"jwt.access_expiry":  "15m",
	"jwt.refresh_expiry": "168h",
	"jwt.issuer":         "facturas",

	"s3.region":           "us-east-1",
	"s3.bucket":           "facturas",
	"s3.endpoint":         "",
	"s3.access_key":       "",
	"s3.secret_key":       "",
	"s3.max_file_size_mb": 10,
	"s3.presign_expiry":   3600,

	"log.level":  "debug",
	"log.format": "console",

	"cors.allowed_origins": "http://localhost:3000,http://127.0.0.1:3000",

	"queue.enabled":            true,
	"queue.poll_interval_secs": 5,
	"queue.concurrency":        3,
	"queue.batch_size":         10,
	"queue.job_timeout_secs":   300,

	"ratelimit.requests_per_minute": 15,
	"ratelimit.burst":               5,

	"ocr.tesseract_path": "tesseract",
	"ocr.pdftoppm_path":  "pdftoppm",
	"ocr.dpi":            300,
	"ocr.language":       "spa",
	"ocr.tessdata_dir":   "",
	"ocr.max_pdf_pages":  50,
	"ocr.timeout_secs":   120,

	"email.provider":     "noop",
	"email.region":       "us-east-1",
	"email.from_address": "noreply@facturas.app",
	"email.from_name":    "Facturas",
	"email.frontend_url": "http://localhost:3000",

	"reminder.days_ahead": 7,
	"reminder.locale":     "es-MX",

	"parser.provider":      "gemini",
	"parser.api_key":       "",
	"parser.default_model": "gemini-2.0-flash",
	"parser.max_retries":   2,
	"parser.timeout_secs":  120,
	"parser.classify":      true,
}

var providerKeys = []string{"provider", "api_key", "default_model", "max_retries", "timeout_secs"}

func init() {
	for _, slot := range []string{"primary", "secondary", "tertiary"} {
		for _, k := range providerKeys {
			key := "parser." + slot + "." + k
			switch k {
			case "max_retries":
				defaults[key] = 2
			case "timeout_secs":
				defaults[key] = 120
			default:
				defaults[key] = ""
			}
		}
	}
}

// envName maps a dotted key to its FACTURAS_ variable, e.g.
// parser.primary.api_key -> FACTURAS_PARSER_PRIMARY_API_KEY.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads configuration from environment variables with the FACTURAS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key, envName(key)); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it unless FACTURAS_SERVER_PORT is set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envName("server.port")) == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),

		MaxLifetime: v.GetDuration("db.max_lifetime"),
	}
	cfg.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Parser = ParserConfig{
		Provider:     v.GetString("parser.provider"),
		APIKey:       v.GetString("parser.api_key"),
		DefaultModel: v.GetString("parser.default_model"),
		MaxRetries:   v.GetInt("parser.max_retries"),
		TimeoutSecs:  v.GetInt("parser.timeout_secs"),
		Primary:      providerConfig(v, "parser.primary"),
		Secondary:    providerConfig(v, "parser.secondary"),
		Tertiary:     providerConfig(v, "parser.tertiary"),
		Classify:     v.GetBool("parser.classify"),
	}
	cfg.OCR = OCRConfig{
		TesseractPath: v.GetString("ocr.tesseract_path"),
		PdftoppmPath:  v.GetString("ocr.pdftoppm_path"),
		DPI:           v.GetInt("ocr.dpi"),
		Language:      v.GetString("ocr.language"),
		TessdataDir:   v.GetString("ocr.tessdata_dir"),
		MaxPDFPages:   v.GetInt("ocr.max_pdf_pages"),
		TimeoutSecs:   v.GetInt("ocr.timeout_secs"),
	}
	cfg.Queue = QueueConfig{
		Enabled:          v.GetBool("queue.enabled"),
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		Concurrency:      v.GetInt("queue.concurrency"),
		BatchSize:        v.GetInt("queue.batch_size"),
		JobTimeoutSecs:   v.GetInt("queue.job_timeout_secs"),
	}
	cfg.RateLimit = RateLimitConfig{
		RequestsPerMinute: v.GetInt("ratelimit.requests_per_minute"),
		Burst:             v.GetInt("ratelimit.burst"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}
	cfg.Reminder = ReminderConfig{
		DaysAhead: v.GetInt("reminder.days_ahead"),
		Locale:    v.GetString("reminder.locale"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ParserProviderConfig {
	return ParserProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
