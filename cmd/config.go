package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	NotifierLog      = "log"
	NotifierTelegram = "telegram"
	NotifierAMQP     = "amqp"

	LocationCacheMemory = "memory"
	LocationCacheRedis  = "redis"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	Location    *time.Location
	Payday      time.Weekday
	PaydayHour  int
	OverdueHour int

	RequestTimeout      time.Duration
	NotificationTimeout time.Duration
	JobTimeout          time.Duration
	TokenTTL            time.Duration

	JWTSecret string
	JWTIssuer string

	AMQPURL               string
	AMQPCommandQueue      string
	AMQPNotificationQueue string
	AMQPPrefetch          int

	Notifier         string
	TelegramBotToken string
	TelegramAPIURL   string

	LocationCache         string
	LocationCacheCapacity int
	LocationCacheTTL      time.Duration
	RedisAddr             string
	RedisPassword         string

	StrictCoordinates bool
	Currency          string
}

// DSN is the libpq connection string for the configured database.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return ConfigFromEnv()
}

// ConfigFromEnv builds the configuration from environment variables alone.
func ConfigFromEnv() (Config, error) {
	r := envReader{}
	cfg := Config{
		HTTPPort:   r.str("HTTP_PORT", "8080"),
		DBHost:     r.str("DB_HOST", "localhost"),
		DBPort:     r.str("DB_PORT", "5432"),
		DBUser:     r.str("DB_USER", "postgres"),
		DBPassword: r.str("DB_PASSWORD", ""),
		DBName:     r.str("DB_NAME", "lastmile"),
		DBSslMode:  r.str("DB_SSLMODE", "disable"),

		Location:    r.location("TZ_NAME", "America/Sao_Paulo"),
		Payday:      r.weekday("PAYDAY", time.Thursday),
		PaydayHour:  r.integer("PAYDAY_HOUR", 12),
		OverdueHour: r.integer("OVERDUE_HOUR", 9),

		RequestTimeout:      r.duration("REQUEST_TIMEOUT", 10*time.Second),
		NotificationTimeout: r.duration("NOTIFICATION_TIMEOUT", 10*time.Second),
		JobTimeout:          r.duration("JOB_TIMEOUT", 5*time.Minute),
		TokenTTL:            r.duration("TOKEN_TTL", 72*time.Hour),

		JWTSecret: r.str("JWT_SECRET", ""),
		JWTIssuer: r.str("JWT_ISSUER", "lastmile"),

		AMQPURL:               r.str("AMQP_URL", ""),
		AMQPCommandQueue:      r.str("AMQP_COMMAND_QUEUE", "lastmile.commands"),
		AMQPNotificationQueue: r.str("AMQP_NOTIFICATION_QUEUE", "lastmile.notifications"),
		AMQPPrefetch:          r.integer("AMQP_PREFETCH", 8),

		Notifier:         strings.ToLower(r.str("NOTIFIER", NotifierLog)),
		TelegramBotToken: r.str("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:   r.str("TELEGRAM_API_URL", ""),

		LocationCache:         strings.ToLower(r.str("LOCATION_CACHE", LocationCacheMemory)),
		LocationCacheCapacity: r.integer("LOCATION_CACHE_CAPACITY", 10_000),
		LocationCacheTTL:      r.duration("LOCATION_CACHE_TTL", 30*time.Minute),
		RedisAddr:             r.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         r.str("REDIS_PASSWORD", ""),

		StrictCoordinates: r.boolean("STRICT_COORDINATES", false),
		Currency:          r.str("CURRENCY", "R$"),
	}
	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errList []error
	if c.PaydayHour < 0 || c.PaydayHour > 23 {
		errList = append(errList, fmt.Errorf("PAYDAY_HOUR %d is out of range", c.PaydayHour))
	}
	if c.OverdueHour < 0 || c.OverdueHour > 23 {
		errList = append(errList, fmt.Errorf("OVERDUE_HOUR %d is out of range", c.OverdueHour))
	}
	switch c.Notifier {
	case NotifierLog:
	case NotifierTelegram:
		if c.TelegramBotToken == "" {
			errList = append(errList, errors.New("TELEGRAM_BOT_TOKEN is required for the telegram notifier"))
		}
	case NotifierAMQP:
		if c.AMQPURL == "" {
			errList = append(errList, errors.New("AMQP_URL is required for the amqp notifier"))
		}
	default:
		errList = append(errList, fmt.Errorf("NOTIFIER %q is not one of log, telegram, amqp", c.Notifier))
	}
	switch c.LocationCache {
	case LocationCacheMemory, LocationCacheRedis:
	default:
		errList = append(errList, fmt.Errorf("LOCATION_CACHE %q is not one of memory, redis", c.LocationCache))
	}
	if c.LocationCacheCapacity <= 0 {
		errList = append(errList, errors.New("LOCATION_CACHE_CAPACITY must be positive"))
	}
	if c.TokenTTL < 0 {
		errList = append(errList, errors.New("TOKEN_TTL must not be negative"))
	}
	return errors.Join(errList...)
}

// envReader collects parse failures so that every bad variable is reported at once.
type envReader struct {
	errs []error
}

func (r *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *envReader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *envReader) location(key, def string) *time.Location {
	name := r.str(key, def)
	loc, err := time.LoadLocation(name)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return time.UTC
	}
	return loc
}

func (r *envReader) weekday(key string, def time.Weekday) time.Weekday {
	v := strings.ToLower(r.str(key, ""))
	if v == "" {
		return def
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == v {
			return d
		}
	}
	r.errs = append(r.errs, fmt.Errorf("%s: %q is not a weekday name", key, v))
	return def
}
