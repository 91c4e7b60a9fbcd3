package environments

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Engine   EngineConfig
	Phone    PhoneConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GatewayConfig points at the Evolution API instance used for WhatsApp.
type GatewayConfig struct {
	URL      string
	APIKey   string
	Instance string
}

// EngineConfig tunes the automation engine. Defaults mirror the cron cadence
// the system was designed around: inbound polling every minute, outbound
// processing every five minutes, failed-message sweep daily.
type EngineConfig struct {
	BatchSize       int
	MaxRetries      int
	MaxDripAttempts int
	DripBackoff     time.Duration
	SendDelay       time.Duration
	PollInterval    time.Duration
	ProcessInterval time.Duration
	SweepInterval   time.Duration
	PollBatchSize   int
	PollLookback    time.Duration
}

// PhoneConfig sets the numbering convention for lead phone matching.
type PhoneConfig struct {
	CountryCode  string
	MobilePrefix string
}

type AuthConfig struct {
	APIKey     string
	CronSecret string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "leads"),
			Password: GetEnv("DB_PASSWORD", "leads123"),
			DBName:   GetEnv("DB_NAME", "leads_automation"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Gateway: GatewayConfig{
			URL:      GetEnv("EVOLUTION_API_URL", ""),
			APIKey:   GetEnv("EVOLUTION_API_KEY", ""),
			Instance: GetEnv("EVOLUTION_API_INSTANCE", "diversao-brinquedos"),
		},
		Engine: EngineConfig{
			BatchSize:       GetEnvAsInt("ENGINE_BATCH_SIZE", 50),
			MaxRetries:      GetEnvAsInt("ENGINE_MAX_RETRIES", 3),
			MaxDripAttempts: GetEnvAsInt("ENGINE_DRIP_MAX_ATTEMPTS", 3),
			DripBackoff:     GetEnvAsDuration("ENGINE_DRIP_BACKOFF", 5*time.Minute),
			SendDelay:       GetEnvAsDuration("ENGINE_SEND_DELAY", 2*time.Second),
			PollInterval:    GetEnvAsDuration("ENGINE_POLL_INTERVAL", time.Minute),
			ProcessInterval: GetEnvAsDuration("ENGINE_PROCESS_INTERVAL", 5*time.Minute),
			SweepInterval:   GetEnvAsDuration("ENGINE_SWEEP_INTERVAL", 24*time.Hour),
			PollBatchSize:   GetEnvAsInt("ENGINE_POLL_BATCH_SIZE", 20),
			PollLookback:    GetEnvAsDuration("ENGINE_POLL_LOOKBACK", 2*time.Minute),
		},
		Phone: PhoneConfig{
			CountryCode:  GetEnv("PHONE_COUNTRY_CODE", "55"),
			MobilePrefix: GetEnv("PHONE_MOBILE_PREFIX", "9"),
		},
		Auth: AuthConfig{
			APIKey:     GetEnv("API_KEY", ""),
			CronSecret: GetEnv("CRON_SECRET", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
