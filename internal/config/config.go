package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default so the service starts against the
// default docker-compose topology with no configuration at all.
type Config struct {
	// Server
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"3004"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Broker
	RabbitMQURL     string        `env:"RABBITMQ_URL" envDefault:"amqp://rabbitmq:5672"`
	ConsumerBackoff time.Duration `env:"CONSUMER_BACKOFF" envDefault:"5s"`

	// Status store
	RedisURL            string        `env:"REDIS_URL" envDefault:"redis://redis:6379"`
	RedisRetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RedisRetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	RedisConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// Delivery transport. Empty credentials switch the service to the
	// simulated mailer.
	SMTPServer   string        `env:"SMTP_SERVER" envDefault:"smtp.gmail.com"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	FromEmail    string        `env:"FROM_EMAIL" envDefault:"noreply@ecommerce.com"`
	SendTimeout  time.Duration `env:"SEND_TIMEOUT" envDefault:"15s"`

	// Delivery concurrency and retry policy.
	MaxConcurrentSends int             `env:"MAX_CONCURRENT_SENDS" envDefault:"8"`
	SendRateLimit      int             `env:"SEND_RATE_LIMIT" envDefault:"50"`
	SendRetryBackoff   []time.Duration `env:"SEND_RETRY_BACKOFF" envDefault:"2s,10s,30s" envSeparator:","`
}

// Load reads the optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	// The .env file might not exist and that's ok.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// SMTPConfigured reports whether real credentials are present.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}
