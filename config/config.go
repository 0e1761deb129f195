package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Negotiation NegotiationConfig
	Stripe      StripeConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type DBConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	MigrationsPath string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// NegotiationConfig tunes the matching radius, the timers that expire an idle
// negotiation, and the daily support-desk window. The open timeout has two
// regimes: a short one while the support desk absorbs notifications, a longer
// one when clinic admins are notified individually.
type NegotiationConfig struct {
	SearchRadiusKm     float64
	OpenTimeout        time.Duration
	OpenTimeoutSupport time.Duration
	SuggestExpiry      time.Duration
	ReservedExpiry     time.Duration
	SupportWindowFrom  int
	SupportWindowTo    int
	TaskPollInterval   time.Duration
}

type StripeConfig struct {
	SecretKey string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	config := &Config{
		App: AppConfig{
			Port: viper.GetString("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		DB: DBConfig{
			Host:           viper.GetString("DB_HOST"),
			Port:           viper.GetString("DB_PORT"),
			User:           viper.GetString("DB_USER"),
			Password:       viper.GetString("DB_PASSWORD"),
			Name:           viper.GetString("DB_NAME"),
			MigrationsPath: stringOr("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Negotiation: NegotiationConfig{
			SearchRadiusKm:     floatOr("NEGOTIATION_SEARCH_RADIUS_KM", 10),
			OpenTimeout:        durationOr("NEGOTIATION_OPEN_TIMEOUT", 2*time.Hour),
			OpenTimeoutSupport: durationOr("NEGOTIATION_OPEN_TIMEOUT_SUPPORT", 30*time.Minute),
			SuggestExpiry:      durationOr("NEGOTIATION_SUGGEST_EXPIRY", 24*time.Hour),
			ReservedExpiry:     durationOr("NEGOTIATION_RESERVED_EXPIRY", 24*time.Hour),
			SupportWindowFrom:  intOr("NEGOTIATION_SUPPORT_WINDOW_FROM", 9),
			SupportWindowTo:    intOr("NEGOTIATION_SUPPORT_WINDOW_TO", 18),
			TaskPollInterval:   durationOr("NEGOTIATION_TASK_POLL_INTERVAL", 30*time.Second),
		},
		Stripe: StripeConfig{
			SecretKey: viper.GetString("STRIPE_SECRET_KEY"),
		},
	}

	return config, nil
}

func stringOr(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}

func intOr(key string, fallback int) int {
	if !viper.IsSet(key) {
		return fallback
	}
	return viper.GetInt(key)
}

func floatOr(key string, fallback float64) float64 {
	if !viper.IsSet(key) {
		return fallback
	}
	return viper.GetFloat64(key)
}
