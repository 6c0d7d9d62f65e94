package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// LIFF / LINE Login
	LIFFID            string
	LineChannelID     string
	LineChannelSecret string
	LineCallbackURL   string
	SessionSecret     string

	// Redirect flow
	BaseURL     string
	PageMap     map[string]string
	DefaultPage string
	DebugMode   bool

	// Form relay
	GASScriptURL   string
	LookupURL      string
	SubmitCooldown time.Duration
	StatusAutoHide time.Duration
	RelayRPS       float64
	NameCacheTTL   time.Duration
	UIStateSize    int

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	OTelEnabled  bool
	OTelEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	pageMap, err := ParsePageMap(getEnv("PAGE_MAP", "home=Home.aspx,vocation=VacationQuery.aspx,report=Report.aspx,approval=Approval.aspx"))
	if err != nil {
		return nil, err
	}

	gasScriptURL := getEnv("GAS_SCRIPT_URL", "")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "https://liff.line.me"), ","),

		LIFFID:            getEnv("LIFF_ID", ""),
		LineChannelID:     getEnv("LINE_CHANNEL_ID", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),
		LineCallbackURL:   getEnv("LINE_CALLBACK_URL", "http://localhost:8080/auth/callback"),
		SessionSecret:     getEnv("SESSION_SECRET", ""),

		BaseURL:     getEnv("BASE_URL", ""),
		PageMap:     pageMap,
		DefaultPage: getEnvAllowEmpty("DEFAULT_PAGE", "home"),
		DebugMode:   getEnvBool("DEBUG_MODE", false),

		GASScriptURL:   gasScriptURL,
		LookupURL:      getEnv("LOOKUP_URL", gasScriptURL),
		SubmitCooldown: getEnvDuration("SUBMIT_COOLDOWN", 3*time.Second),
		StatusAutoHide: getEnvDuration("STATUS_AUTO_HIDE", 3*time.Second),
		RelayRPS:       getEnvFloat64("RELAY_RPS", 5),
		NameCacheTTL:   getEnvDuration("NAME_CACHE_TTL", 10*time.Minute),
		UIStateSize:    getEnvInt("UI_STATE_SIZE", 10000),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_ENDPOINT", "localhost:4317"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the static configuration the gateway cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LIFFID) == "" {
		return fmt.Errorf("LIFF_ID is required - set it in .env file")
	}

	if c.LineChannelID == "" || c.LineChannelSecret == "" {
		return fmt.Errorf("LINE_CHANNEL_ID and LINE_CHANNEL_SECRET are required - set them in .env file")
	}

	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required - set it in .env file")
	}

	if len(c.PageMap) == 0 {
		return fmt.Errorf("PAGE_MAP must define at least one page")
	}

	return nil
}

// ParsePageMap reads "key=Path.aspx,key2=Other.aspx". Keys are lower-cased.
func ParsePageMap(raw string) (map[string]string, error) {
	pages := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, path, ok := strings.Cut(entry, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		path = strings.TrimSpace(path)
		if !ok || key == "" || path == "" {
			return nil, fmt.Errorf("invalid PAGE_MAP entry %q", entry)
		}
		pages[key] = path
	}
	return pages, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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
