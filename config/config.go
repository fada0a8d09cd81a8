package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address    string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	SwaggerDir string `yaml:"swagger_dir" env:"HTTP_SWAGGER_DIR"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"airbooking"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"airbooking"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	Migrate  bool   `yaml:"migrate" env:"DB_MIGRATE"`
	SeedFile string `yaml:"seed_file" env:"DB_SEED_FILE"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.MaxConns)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	BookingTopic       string   `yaml:"booking_topic" env:"KAFKA_BOOKING_TOPIC" env-default:"tickets.booked"`
	NotificationsTopic string   `yaml:"notifications_topic" env:"KAFKA_NOTIFICATIONS_TOPIC"`
	GroupID            string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"airbooking-notifier"`
}

type BookingConfig struct {
	TimeoutSeconds         int    `yaml:"timeout_seconds" env:"BOOKING_TIMEOUT_SECONDS" env-default:"10"`
	SeatsPerRow            int    `yaml:"seats_per_row" env:"BOOKING_SEATS_PER_ROW" env-default:"6"`
	SeatLetters            string `yaml:"seat_letters" env:"BOOKING_SEAT_LETTERS" env-default:"ABCDEFGHJK"`
	FlightsCacheTTL        int    `yaml:"flights_cache_ttl_seconds" env:"BOOKING_FLIGHTS_CACHE_TTL" env-default:"30"`
	IdempotencyTTLMinutes  int    `yaml:"idempotency_ttl_minutes" env:"BOOKING_IDEMPOTENCY_TTL" env-default:"1440"`
	ConfirmationCodeLength int    `yaml:"confirmation_code_length" env:"BOOKING_CODE_LENGTH" env-default:"8"`
}

func (b BookingConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

func (b BookingConfig) FlightsCacheDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

func (b BookingConfig) IdempotencyTTL() time.Duration {
	return time.Duration(b.IdempotencyTTLMinutes) * time.Minute
}

const (
	minPendingTTL = 30 * time.Second
	pendingGrace  = 5 * time.Second
)

// IdempotencyPendingTTL is how long an unfinished booking holds its
// Idempotency-Key. The booking and its event publishing each run under
// Timeout, so the key outlives both. Without a timeout the key is held for the
// full idempotency window.
func (b BookingConfig) IdempotencyPendingTTL() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return b.IdempotencyTTL()
	}
	ttl := 2*b.Timeout() + pendingGrace
	if ttl < minPendingTTL {
		return minPendingTTL
	}
	return ttl
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// LoadConfig reads the YAML file at path; environment variables override it.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Booking.SeatsPerRow <= 0 || c.Booking.SeatsPerRow > len(c.Booking.SeatLetters) {
		return fmt.Errorf("seats_per_row must be between 1 and %d", len(c.Booking.SeatLetters))
	}
	if c.Booking.ConfirmationCodeLength < 6 || c.Booking.ConfirmationCodeLength > 26 {
		return fmt.Errorf("confirmation_code_length must be between 6 and 26")
	}
	return nil
}
