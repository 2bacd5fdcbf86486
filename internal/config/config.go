package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the whole service configuration, read from the environment.
// Sections are embedded so envconfig reads their tags without a prefix.
type Config struct {
	AppName string `envconfig:"APP_NAME" default:"Gym Backend"`
	ServerConfig
	DBConfig
	AuthConfig
	GymConfig
	KioskConfig
	RelayConfig
	LogConfig
}

type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	CORSAllowedOrigins string        `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	Host         string `envconfig:"DB_HOST" default:"localhost"`
	Port         string `envconfig:"DB_PORT" default:"5432"`
	User         string `envconfig:"DB_USER" default:"gym_user" masked:"true"`
	Password     string `envconfig:"DB_PASSWORD" default:"gym_password" masked:"true"`
	Name         string `envconfig:"DB_NAME" default:"gym_db"`
	SSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	SchemaPath   string `envconfig:"DB_SCHEMA_PATH" default:""`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
}

// DSN builds the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type AuthConfig struct {
	// JWTSecret is shared with the hosted identity provider.
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true" masked:"true"`
	TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"12h"`

	// AdminUsername/AdminPassword seed the first staff account when both are set.
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:""`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"" masked:"true"`
}

type GymConfig struct {
	TimeZone           string `envconfig:"GYM_TIMEZONE" default:"America/Lima"`
	AverageStayMinutes int    `envconfig:"GYM_AVERAGE_STAY_MINUTES" default:"90"`
}

type KioskConfig struct {
	Debounce time.Duration `envconfig:"KIOSK_DEBOUNCE" default:"5s"`
}

type RelayConfig struct {
	// Port is the serial device of the door relay; empty disables it.
	Port     string        `envconfig:"RELAY_PORT" default:""`
	BaudRate int           `envconfig:"RELAY_BAUD" default:"9600"`
	Pulse    time.Duration `envconfig:"RELAY_PULSE" default:"3s"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads an optional .env file and then the process environment.
// A missing env file is not an error; envPath == "" skips it.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.GymConfig.TimeZone); err != nil {
		return fmt.Errorf("invalid GYM_TIMEZONE %q: %w", c.GymConfig.TimeZone, err)
	}
	if c.GymConfig.AverageStayMinutes <= 0 {
		return errors.New("GYM_AVERAGE_STAY_MINUTES must be positive")
	}
	if c.KioskConfig.Debounce < 0 {
		return errors.New("KIOSK_DEBOUNCE cannot be negative")
	}
	return nil
}

// Location returns the gym's operating time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.GymConfig.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.ServerConfig.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
