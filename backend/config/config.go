package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	ServerPort     string
	AllowedOrigins string
	LogMode        string
	SessionSecret  string

	Discord DiscordConfig

	ResetEnabled bool
	ResetKey     string
	DebugRoutes  bool

	RedisAddr          string
	ProgressRateLimit  int
	ProgressRateWindow time.Duration

	DispatchTimeout time.Duration
	CatalogSeedPath string

	OTelEnabled      bool
	OTelExporter     string
	OTelEndpoint     string
	MetricsEnabled   bool
	ServiceName      string
	ServiceVersion   string
	DeploymentTarget string
}

type DiscordConfig struct {
	BotToken              string
	GuildID               string
	NotificationChannelID string
	BuilderRoleID         string
	OperatorRoleID        string
	ArchitectRoleID       string
	Footer                string
}

// RoleTier is one entry of the module ordinal → course role table.
type RoleTier struct {
	Name   string
	RoleID string
}

// RoleTiers returns the ordinal → role table. Tiers without a role id are left out.
func (d DiscordConfig) RoleTiers() map[int]RoleTier {
	tiers := map[int]RoleTier{}
	if d.BuilderRoleID != "" {
		tiers[1] = RoleTier{Name: "Builder", RoleID: d.BuilderRoleID}
	}
	if d.OperatorRoleID != "" {
		tiers[3] = RoleTier{Name: "Operator", RoleID: d.OperatorRoleID}
	}
	if d.ArchitectRoleID != "" {
		tiers[6] = RoleTier{Name: "Architect", RoleID: d.ArchitectRoleID}
	}
	return tiers
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfg := &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "mastery_course"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "mastery_course.db"),

		ServerPort:     getEnv("SERVER_PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		LogMode:        getEnv("LOG_MODE", "dev"),
		SessionSecret:  getEnv("SESSION_SECRET", "secret"),

		Discord: DiscordConfig{
			BotToken:              getEnv("DISCORD_BOT_TOKEN", ""),
			GuildID:               getEnv("DISCORD_GUILD_ID", ""),
			NotificationChannelID: getEnv("DISCORD_NOTIFICATION_CHANNEL_ID", ""),
			BuilderRoleID:         getEnv("DISCORD_BUILDER_ROLE_ID", ""),
			OperatorRoleID:        getEnv("DISCORD_OPERATOR_ROLE_ID", ""),
			ArchitectRoleID:       getEnv("DISCORD_ARCHITECT_ROLE_ID", ""),
			Footer:                getEnv("NOTIFICATION_FOOTER", "N8n Mastery Course"),
		},

		ResetEnabled: getEnvBool("RESET_ENABLED", true),
		ResetKey:     getEnv("RESET_KEY", "dev-reset-2024"),
		DebugRoutes:  getEnvBool("DEBUG_ROUTES", false),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		ProgressRateLimit:  getEnvInt("PROGRESS_RATE_LIMIT", 30),
		ProgressRateWindow: getEnvDuration("PROGRESS_RATE_WINDOW", time.Minute),

		DispatchTimeout: getEnvDuration("DISPATCH_TIMEOUT", 15*time.Second),
		CatalogSeedPath: getEnv("CATALOG_SEED_PATH", ""),

		OTelEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTelExporter:     getEnv("OTEL_EXPORTER", "stdout"),
		OTelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		ServiceName:      getEnv("SERVICE_NAME", "mastery-course"),
		ServiceVersion:   getEnv("SERVICE_VERSION", "dev"),
		DeploymentTarget: getEnv("DEPLOYMENT_ENVIRONMENT", "local"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate refuses the development fallbacks in prod mode.
func (c *Config) validate() error {
	if c.LogMode != "prod" {
		return nil
	}
	if _, ok := os.LookupEnv("SESSION_SECRET"); !ok || c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must be set when LOG_MODE=prod")
	}
	if _, ok := os.LookupEnv("RESET_KEY"); c.ResetEnabled && (!ok || c.ResetKey == "") {
		return errors.New("RESET_KEY must be set when LOG_MODE=prod and reset is enabled")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvDuration accepts Go duration strings ("30s") or plain seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
