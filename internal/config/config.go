package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"NormasScanner/internal/keywords"
)

const (
	defaultTimezone   = "America/Lima"
	configPathEnv     = "NORMAS_SCANNER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	archiveDirEnv     = "ARCHIVE_DIR"
	gazetteBaseEnv    = "GAZETTE_BASE_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Gazette       GazetteConfig      `yaml:"gazette"`
	Archive       ArchiveConfig      `yaml:"archive"`
	Corpus        CorpusConfig       `yaml:"corpus"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Keywords      *keywords.Lists    `yaml:"keywords"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// GazetteConfig points the extractor at the gazette site.
type GazetteConfig struct {
	BaseURL    string `yaml:"baseUrl"`
	MaxScrolls int    `yaml:"maxScrolls"`
}

// ArchiveConfig locates the local document archive.
type ArchiveConfig struct {
	Dir string `yaml:"dir"`
}

// CorpusConfig names the persisted corpus row.
type CorpusConfig struct {
	Name string `yaml:"name"`
}

// SchedulerConfig defines when the pipeline runs in loop mode. When Loop is
// false the process runs once and exits.
type SchedulerConfig struct {
	Loop           bool           `yaml:"loop"`
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// KeywordLists resolves the configured term lists, falling back to the
// curated defaults.
func (c Config) KeywordLists() keywords.Lists {
	if c.Keywords != nil {
		return *c.Keywords
	}
	return keywords.DefaultLists()
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(archiveDirEnv); v != "" {
		c.Archive.Dir = v
	}

	if v := os.Getenv(gazetteBaseEnv); v != "" {
		c.Gazette.BaseURL = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Gazette.BaseURL != "" {
		base.Gazette.BaseURL = override.Gazette.BaseURL
	}
	if override.Gazette.MaxScrolls > 0 {
		base.Gazette.MaxScrolls = override.Gazette.MaxScrolls
	}

	if override.Archive.Dir != "" {
		base.Archive = override.Archive
	}

	if override.Corpus.Name != "" {
		base.Corpus = override.Corpus
	}

	if override.Scheduler.Loop {
		base.Scheduler.Loop = true
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Keywords != nil {
		base.Keywords = override.Keywords
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		Gazette: GazetteConfig{
			BaseURL:    "https://diariooficial.elperuano.pe",
			MaxScrolls: 40,
		},
		Archive: ArchiveConfig{Dir: os.TempDir()},
		Corpus:  CorpusConfig{Name: "hidrocarburos"},
		Scheduler: SchedulerConfig{
			Loop:           false,
			CronExpression: "0 8 * * *",
			Timezone:       defaultTimezone,
		},
	}
}
